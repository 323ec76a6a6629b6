package civilization

import (
	"testing"

	"civsim-server/internal/event"
	"civsim-server/internal/star"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sharedStarWorld(t *testing.T) *testWorld {
	t.Helper()
	return newTestWorld(t,
		star.New("shared", "Shared", star.Vec3{}, 1, 1),
		star.New("home", "Home", star.Vec3{X: 500}, 1, 1),
	)
}

func temperament(p Params, cooperation, aggression float64) Params {
	p.CooperationFactor = cooperation
	p.AggressionFactor = aggression
	return p
}

func TestPeacefulExchangeLearnsFromMoreAdvanced(t *testing.T) {
	w := sharedStarWorld(t)
	learner := w.found(t, temperament(steadyParams("civ_1", "shared"), 0.8, 0.2))

	advancedParams := temperament(steadyParams("civ_2", "shared"), 0.8, 0.2)
	advancedParams.TechLevel = 2.5
	mentor := w.found(t, advancedParams)

	learner.interact(1, w)

	expectedBoost := (2.5 - 1.0) * 0.8 * 0.1
	assert.Greater(t, expectedBoost, 0.0)
	assert.InDelta(t, 1.0+expectedBoost, learner.TechLevel(), 1e-12)

	exchanges := learner.history.Filter(event.KindTechExchange)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "civ_2", exchanges[0].Data["with_civilization"])
	assert.Equal(t, "shared", exchanges[0].Data["at_star"])
	assert.InDelta(t, expectedBoost, exchanges[0].Data["tech_boost"], 1e-12)

	// The more advanced side is unaffected.
	mentor.interact(1, w)
	assert.Equal(t, 2.5, mentor.TechLevel())
	assert.Empty(t, mentor.history.Filter(event.KindTechExchange))
}

func TestInteractionRequiresLiveColoniesOnBothSides(t *testing.T) {
	w := sharedStarWorld(t)
	learner := w.found(t, temperament(steadyParams("civ_1", "home"), 0.8, 0.2))
	p := temperament(steadyParams("civ_2", "shared"), 0.8, 0.2)
	p.TechLevel = 3
	w.found(t, p)

	// civ_1 has visited the shared star but holds no colony there.
	learner.visited.Set("shared", 0)
	shared, _ := w.field.Star("shared")
	shared.RecordVisit("civ_1", 0)

	learner.interact(1, w)

	assert.Equal(t, 1.0, learner.TechLevel())
	assert.Empty(t, learner.History()[1:])
}

func TestHostileHigherAggressionWinsAndConservesMass(t *testing.T) {
	w := sharedStarWorld(t)
	raider := w.found(t, temperament(steadyParams("civ_1", "shared"), 0.1, 0.9))
	settler := w.found(t, temperament(steadyParams("civ_2", "shared"), 0.05, 0.1))

	before := raider.Strength("shared")
	assert.Greater(t, before, settler.Strength("shared"))

	raiderBefore, _ := raider.ColonyPopulation("shared")
	settlerBefore, _ := settler.ColonyPopulation("shared")

	raider.interact(1, w)

	raiderAfter, _ := raider.ColonyPopulation("shared")
	settlerAfter, _ := settler.ColonyPopulation("shared")

	assert.InDelta(t, settlerBefore*0.5, settlerAfter, 1e-9)
	assert.InDelta(t, raiderBefore+settlerBefore*0.5, raiderAfter, 1e-9)
	assert.InDelta(t, raiderBefore+settlerBefore, raiderAfter+settlerAfter, 1e-9)
	assert.InDelta(t, sumColonies(settler), settler.Population(), 1e-9)
	assert.InDelta(t, sumColonies(raider), raider.Population(), 1e-9)

	won := raider.history.Filter(event.KindConflictWon)
	require.Len(t, won, 1)
	assert.Equal(t, "civ_2", won[0].Data["against_civilization"])
	assert.InDelta(t, settlerBefore*0.5, won[0].Data["captured_population"], 1e-9)
}

func TestHostileWeakerInitiatorLosesHalf(t *testing.T) {
	w := sharedStarWorld(t)
	raider := w.found(t, temperament(steadyParams("civ_1", "shared"), 0.1, 0.9))
	settler := w.found(t, temperament(steadyParams("civ_2", "shared"), 0.05, 0.1))

	settler.interact(1, w)

	settlerAfter, _ := settler.ColonyPopulation("shared")
	raiderAfter, _ := raider.ColonyPopulation("shared")
	assert.InDelta(t, 0.5e6, settlerAfter, 1e-9)
	assert.InDelta(t, 1.5e6, raiderAfter, 1e-9)

	lost := settler.history.Filter(event.KindConflictLost)
	require.Len(t, lost, 1)
	assert.InDelta(t, 0.5e6, lost[0].Data["lost_population"], 1e-9)
	assert.Empty(t, raider.history.Filter(event.KindConflictWon))
}

func TestHostileTieGoesAgainstInitiator(t *testing.T) {
	w := sharedStarWorld(t)
	first := w.found(t, temperament(steadyParams("civ_1", "shared"), 0.5, 0.5))
	second := w.found(t, temperament(steadyParams("civ_2", "shared"), 0.5, 0.5))
	require.Equal(t, first.Strength("shared"), second.Strength("shared"))

	first.interact(1, w)

	firstAfter, _ := first.ColonyPopulation("shared")
	secondAfter, _ := second.ColonyPopulation("shared")
	assert.InDelta(t, 0.5e6, firstAfter, 1e-9)
	assert.InDelta(t, 1.5e6, secondAfter, 1e-9)
	assert.Len(t, first.history.Filter(event.KindConflictLost), 1)
}

func TestHostileDefeatCausesExtinction(t *testing.T) {
	w := sharedStarWorld(t)
	raider := w.found(t, temperament(steadyParams("civ_1", "shared"), 0.1, 0.9))
	weak := steadyParams("civ_2", "shared")
	weak.Population = 150
	victim := w.found(t, temperament(weak, 0.05, 0.1))

	raider.interact(3, w)

	assert.True(t, victim.Extinct())
	assert.Equal(t, []string{"civ_2"}, w.removed)
	_, stillRegistered := w.Civilization("civ_2")
	assert.False(t, stillRegistered)

	extinction := victim.history.Filter(event.KindExtinction)
	require.Len(t, extinction, 1)
	assert.Equal(t, "civ_1", extinction[0].Data["caused_by"])
	assert.Equal(t, 3, extinction[0].Date)

	caused := raider.history.Filter(event.KindExtinctionCaused)
	require.Len(t, caused, 1)
	assert.Equal(t, "civ_2", caused[0].Data["civilization"])

	raiderAfter, _ := raider.ColonyPopulation("shared")
	assert.InDelta(t, 1e6+75, raiderAfter, 1e-9)
}

func TestDefeatKeepsCivilizationWithOtherColonies(t *testing.T) {
	w := sharedStarWorld(t)
	raider := w.found(t, temperament(steadyParams("civ_1", "shared"), 0.1, 0.9))
	weak := steadyParams("civ_2", "home")
	victim := w.found(t, temperament(weak, 0.05, 0.1))

	victim.visited.Set("shared", 0)
	victim.setColony("shared", 120)
	shared, _ := w.field.Star("shared")
	shared.RecordVisit("civ_2", 0)

	raider.interact(2, w)

	_, hasShared := victim.ColonyPopulation("shared")
	assert.False(t, hasShared)
	assert.False(t, victim.Extinct())
	assert.Empty(t, w.removed)
	assert.Equal(t, 1e6, victim.Population())
}
