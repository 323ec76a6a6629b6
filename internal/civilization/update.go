package civilization

import (
	"civsim-server/internal/event"
)

const (
	// EstablishmentTicks is the time after founding before a civilization
	// starts expanding.
	EstablishmentTicks = 10
	// ExpansionBatch stops a tick's expansion once the visited count
	// reaches a multiple of it.
	ExpansionBatch = 10
	// ColonyShare is the fraction of the origin colony sent to found a
	// new one.
	ColonyShare = 0.1
	// KnowledgeTechBonus multiplies the tech gain of knowledge-driven
	// civilizations.
	KnowledgeTechBonus = 1.2
)

// Update advances the civilization by one tick. Phases run in a fixed
// order and each observes the effects of the previous ones: population,
// technology, expansion, interaction. Interaction may mutate other
// civilizations and remove civilizations, including this one, from world.
func (c *Civilization) Update(currentDate int, world World, rng Rand) {
	c.updatePopulation(currentDate, world)
	c.updateTechnology(currentDate)
	c.expand(currentDate, world, rng)
	c.interact(currentDate, world)
}

func (c *Civilization) updatePopulation(currentDate int, stars StarLookup) {
	growthRate := c.params.ReproductionRate - 1/c.params.IndividualLifespan

	for _, starID := range c.colonyKeys() {
		s, ok := stars.Star(starID)
		if !ok {
			c.lookupMisses++
			continue
		}

		population, _ := c.colonies.Get(starID)
		next := population * (1 + growthRate*s.Resources)
		if capacity := s.CarryingCapacity(); next > capacity {
			next = capacity
		}
		c.setColony(starID, next)
	}

	c.populationHistory = append(c.populationHistory, Sample{Date: currentDate, Value: c.Population()})
}

func (c *Civilization) updateTechnology(currentDate int) {
	next := c.techLevel * (1 + c.params.TechAdvancementRate)
	if c.params.Motivation == MotivationKnowledge {
		next *= KnowledgeTechBonus
	}
	c.techLevel = next
	c.techHistory = append(c.techHistory, Sample{Date: currentDate, Value: next})
}

// expansionProbability is the chance of settling a candidate at distance
// from the origin, given the current effective range.
func (c *Civilization) expansionProbability(distance, effectiveRange, resources float64) float64 {
	p := c.params.ExpansionRate * (1 - distance/effectiveRange) * resources

	switch c.params.Motivation {
	case MotivationExpansion:
		p *= 1.5
	case MotivationSeeding:
		p *= 1.3
	case MotivationResource:
		if resources < 0.6 {
			p *= 0.2
		}
	}
	return p
}

func (c *Civilization) expand(currentDate int, world World, rng Rand) {
	if currentDate-c.params.FoundingDate < EstablishmentTicks {
		return
	}

	effectiveRange := c.params.ExpansionRange * c.techLevel

	for _, originID := range c.visitedKeys() {
		origin, ok := world.Star(originID)
		if !ok {
			c.lookupMisses++
			continue
		}

		for _, candidate := range world.NearbyStars(origin.Position, effectiveRange) {
			if c.HasVisited(candidate.ID) {
				continue
			}

			distance := origin.DistanceTo(candidate)
			if distance > effectiveRange {
				continue
			}

			p := c.expansionProbability(distance, effectiveRange, candidate.Resources)
			if rng.Float64() >= p {
				continue
			}

			c.visited.Set(candidate.ID, currentDate)
			candidate.RecordVisit(c.params.ID, currentDate)

			originPopulation, hasColony := c.colonies.Get(originID)
			colonySize := originPopulation * ColonyShare
			if hasColony {
				c.setColony(originID, originPopulation-colonySize)
			}
			c.setColony(candidate.ID, colonySize)

			c.history.Append(event.Expansion(currentDate, originID, candidate.ID, distance, colonySize))
			c.logger.Debug("Expanded to new star",
				"date", currentDate,
				"from_star", originID,
				"to_star", candidate.ID,
				"colony_size", colonySize,
			)

			if c.visited.Len()%ExpansionBatch == 0 {
				return
			}
		}
	}
}

func (c *Civilization) interact(currentDate int, world World) {
	for _, starID := range c.visitedKeys() {
		s, ok := world.Star(starID)
		if !ok {
			c.lookupMisses++
			continue
		}

		for _, visit := range s.Visitors() {
			if visit.CivilizationID == c.params.ID {
				continue
			}

			other, ok := world.Civilization(visit.CivilizationID)
			if !ok {
				continue
			}

			// Both sides must hold a live colony here, not just a visit.
			if _, ok := other.colonies.Get(starID); !ok {
				continue
			}
			if _, ok := c.colonies.Get(starID); !ok {
				continue
			}

			if c.params.CooperationFactor > c.params.AggressionFactor {
				c.resolvePeaceful(currentDate, other, starID)
			} else {
				c.resolveHostile(currentDate, other, starID, world)
			}
		}
	}
}
