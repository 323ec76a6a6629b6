package civilization

import (
	"civsim-server/internal/event"
)

const (
	// TechExchangeRate scales the tech gap absorbed in a peaceful encounter.
	TechExchangeRate = 0.1
	// CaptureShare is the fraction of the loser's local population the
	// winner of a conflict takes over.
	CaptureShare = 0.5
	// MinViablePopulation is the local population at or below which a
	// defeated colony is abandoned.
	MinViablePopulation = 100
)

// Strength is the effective military strength of c at a star.
func (c *Civilization) Strength(starID string) float64 {
	local, _ := c.colonies.Get(starID)
	return local * c.techLevel * c.params.AggressionFactor
}

// resolvePeaceful lets c learn from a more advanced civilization. The
// other side is never affected.
func (c *Civilization) resolvePeaceful(currentDate int, other *Civilization, starID string) {
	if other.techLevel <= c.techLevel {
		return
	}

	boost := (other.techLevel - c.techLevel) * c.params.CooperationFactor * TechExchangeRate
	c.techLevel += boost

	c.history.Append(event.TechExchange(currentDate, other.params.ID, starID, boost))
}

// resolveHostile fights over starID from c's point of view. c wins only
// with strictly greater strength; a tie is a loss for c.
func (c *Civilization) resolveHostile(currentDate int, other *Civilization, starID string, world World) {
	if c.Strength(starID) > other.Strength(starID) {
		captured := c.transferFrom(other, starID)
		c.history.Append(event.ConflictWon(currentDate, other.params.ID, starID, captured))
		c.logger.Debug("Conflict won",
			"date", currentDate,
			"against", other.params.ID,
			"star", starID,
			"captured_population", captured,
		)
		settleDefeat(currentDate, c, other, starID, world)
		return
	}

	lost := other.transferFrom(c, starID)
	c.history.Append(event.ConflictLost(currentDate, other.params.ID, starID, lost))
	c.logger.Debug("Conflict lost",
		"date", currentDate,
		"against", other.params.ID,
		"star", starID,
		"lost_population", lost,
	)
	settleDefeat(currentDate, other, c, starID, world)
}

// transferFrom moves CaptureShare of loser's population at starID to c.
// The combined population at the star is unchanged.
func (c *Civilization) transferFrom(loser *Civilization, starID string) float64 {
	loserLocal, _ := loser.colonies.Get(starID)
	winnerLocal, _ := c.colonies.Get(starID)

	amount := loserLocal * CaptureShare
	loser.setColony(starID, loserLocal-amount)
	c.setColony(starID, winnerLocal+amount)
	return amount
}

// settleDefeat abandons the loser's colony when it is no longer viable
// and removes the loser from world once it holds no colony at all.
func settleDefeat(currentDate int, winner, loser *Civilization, starID string, world World) {
	remaining, _ := loser.colonies.Get(starID)
	if remaining > MinViablePopulation {
		return
	}

	loser.removeColony(starID)
	if !loser.Extinct() {
		return
	}

	world.RemoveCivilization(loser.params.ID)
	loser.history.Append(event.Extinction(currentDate, winner.params.ID))
	winner.history.Append(event.ExtinctionCaused(currentDate, loser.params.ID))
	loser.logger.Debug("Civilization extinct", "date", currentDate, "caused_by", winner.params.ID)
}
