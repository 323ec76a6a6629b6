package civilization

import (
	"fmt"
	"testing"

	"civsim-server/internal/event"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/star"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand returns the same value on every draw and counts draws.
type fixedRand struct {
	value float64
	calls int
}

func (r *fixedRand) Float64() float64 {
	r.calls++
	return r.value
}

type testWorld struct {
	field   *star.Field
	civs    map[string]*Civilization
	hidden  map[string]bool
	removed []string
}

func newTestWorld(t *testing.T, stars ...*star.Star) *testWorld {
	t.Helper()
	field, err := star.NewField(1000, stars, 0)
	require.NoError(t, err)
	return &testWorld{
		field:  field,
		civs:   make(map[string]*Civilization),
		hidden: make(map[string]bool),
	}
}

func (w *testWorld) Star(id string) (*star.Star, bool) {
	if w.hidden[id] {
		return nil, false
	}
	return w.field.Star(id)
}

func (w *testWorld) NearbyStars(pos star.Vec3, rangeLimit float64) []*star.Star {
	return w.field.Nearby(pos, rangeLimit)
}

func (w *testWorld) Civilization(id string) (*Civilization, bool) {
	c, ok := w.civs[id]
	return c, ok
}

func (w *testWorld) RemoveCivilization(id string) bool {
	if _, ok := w.civs[id]; !ok {
		return false
	}
	delete(w.civs, id)
	w.removed = append(w.removed, id)
	return true
}

func (w *testWorld) found(t *testing.T, p Params) *Civilization {
	t.Helper()
	c, err := New(p, w, nil)
	require.NoError(t, err)
	w.civs[c.ID()] = c
	return c
}

func steadyParams(id, origin string) Params {
	p := DefaultParams(id, "Civ "+id, origin, 0)
	p.TechAdvancementRate = 0
	return p
}

func sumColonies(c *Civilization) float64 {
	total := 0.0
	for _, colony := range c.Colonies() {
		total += colony.Population
	}
	return total
}

func TestNewValidatesParams(t *testing.T) {
	w := newTestWorld(t, star.New("s0", "S0", star.Vec3{}, 0.5, 1))

	cases := map[string]func(p *Params){
		"zero lifespan":        func(p *Params) { p.IndividualLifespan = 0 },
		"cooperation above 1":  func(p *Params) { p.CooperationFactor = 1.5 },
		"negative aggression":  func(p *Params) { p.AggressionFactor = -0.1 },
		"unknown motivation":   func(p *Params) { p.Motivation = "glory" },
		"missing id":           func(p *Params) { p.ID = "" },
		"non-positive tech":    func(p *Params) { p.TechLevel = 0 },
		"unknown organization": func(p *Params) { p.OrganizationType = "swarm" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams("civ_1", "One", "s0", 0)
			mutate(&p)
			_, err := New(p, w, nil)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)
		})
	}

	_, err := New(DefaultParams("civ_1", "One", "missing", 0), w, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestNewRecordsFounding(t *testing.T) {
	origin := star.New("s0", "S0", star.Vec3{}, 0.5, 1)
	w := newTestWorld(t, origin)

	c := w.found(t, DefaultParams("civ_1", "One", "s0", 4))

	assert.Equal(t, []VisitedStar{{StarID: "s0", Date: 4}}, c.VisitedStars())
	assert.Equal(t, []Colony{{StarID: "s0", Population: 1e6}}, c.Colonies())
	assert.Equal(t, 1e6, c.Population())
	assert.Equal(t, []Sample{{Date: 4, Value: 1.0}}, c.TechHistory())

	date, ok := origin.FirstVisit("civ_1")
	require.True(t, ok)
	assert.Equal(t, 4, date)

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, event.KindFounding, history[0].Kind)
	assert.Equal(t, "s0", history[0].Data["star"])
}

func TestPopulationGrowthScalesWithResources(t *testing.T) {
	w := newTestWorld(t, star.New("s0", "S0", star.Vec3{}, 0.5, 1))
	p := steadyParams("civ_1", "s0")
	p.ReproductionRate = 0.02
	p.IndividualLifespan = 100
	c := w.found(t, p)

	c.Update(1, w, &fixedRand{value: 1})

	expected := 1e6 * (1 + (0.02-0.01)*0.5)
	assert.InDelta(t, expected, c.Population(), 1e-6)
	assert.Equal(t, []Sample{{Date: 0, Value: 1e6}, {Date: 1, Value: c.Population()}}, c.PopulationHistory())
}

func TestPopulationClampedToCarryingCapacity(t *testing.T) {
	poor := star.New("s0", "S0", star.Vec3{}, 0.001, 2)
	w := newTestWorld(t, poor)
	p := steadyParams("civ_1", "s0")
	p.Population = 5e6
	p.ReproductionRate = 0.5
	c := w.found(t, p)

	for date := 1; date <= 3; date++ {
		c.Update(date, w, &fixedRand{value: 1})
		for _, colony := range c.Colonies() {
			assert.LessOrEqual(t, colony.Population, poor.CarryingCapacity())
		}
	}
	assert.Equal(t, poor.CarryingCapacity(), c.Population())
}

func TestPopulationSkipsUnknownStars(t *testing.T) {
	w := newTestWorld(t, star.New("s0", "S0", star.Vec3{}, 0.5, 1))
	c := w.found(t, steadyParams("civ_1", "s0"))
	w.hidden["s0"] = true

	c.Update(1, w, &fixedRand{value: 1})

	assert.Equal(t, 1e6, c.Population())
	assert.Positive(t, c.LookupMisses())
}

func TestTechnologyKnowledgeBonus(t *testing.T) {
	w := newTestWorld(t, star.New("s0", "S0", star.Vec3{}, 0.5, 1))

	p := DefaultParams("civ_1", "Scholars", "s0", 0)
	p.TechAdvancementRate = 0.01
	p.Motivation = MotivationKnowledge
	scholars := w.found(t, p)

	q := DefaultParams("civ_2", "Builders", "s0", 0)
	q.TechAdvancementRate = 0.01
	q.CooperationFactor = 0.6
	q.AggressionFactor = 0.4
	builders := w.found(t, q)

	scholars.updateTechnology(1)
	builders.updateTechnology(1)

	assert.InDelta(t, 1.01*1.2, scholars.TechLevel(), 1e-12)
	assert.InDelta(t, 1.01, builders.TechLevel(), 1e-12)
	assert.Equal(t, Sample{Date: 1, Value: scholars.TechLevel()}, scholars.TechHistory()[1])
}

func TestNoExpansionBeforeEstablishment(t *testing.T) {
	w := newTestWorld(t,
		star.New("s0", "S0", star.Vec3{}, 1, 1),
		star.New("s1", "S1", star.Vec3{X: 10}, 1, 1),
	)
	c := w.found(t, steadyParams("civ_1", "s0"))
	rng := &fixedRand{value: 0}

	for date := 1; date < EstablishmentTicks; date++ {
		c.Update(date, w, rng)
	}
	assert.Zero(t, rng.calls)
	assert.Equal(t, 1, c.VisitedCount())

	c.Update(EstablishmentTicks, w, rng)
	assert.Equal(t, 1, rng.calls)
	assert.True(t, c.HasVisited("s1"))
}

func TestExpansionTransfersColonyShare(t *testing.T) {
	target := star.New("s1", "S1", star.Vec3{X: 10}, 1, 1)
	w := newTestWorld(t, star.New("s0", "S0", star.Vec3{}, 1, 1), target)
	c := w.found(t, steadyParams("civ_1", "s0"))

	c.Update(10, w, &fixedRand{value: 0})

	grown := c.PopulationHistory()[1].Value
	origin, _ := c.ColonyPopulation("s0")
	colony, _ := c.ColonyPopulation("s1")
	assert.InDelta(t, grown*0.9, origin, 1e-6)
	assert.InDelta(t, grown*0.1, colony, 1e-6)
	assert.InDelta(t, sumColonies(c), c.Population(), 1e-6)

	date, ok := target.FirstVisit("civ_1")
	require.True(t, ok)
	assert.Equal(t, 10, date)

	expansions := c.history.Filter(event.KindExpansion)
	require.Len(t, expansions, 1)
	assert.Equal(t, "s0", expansions[0].Data["from_star"])
	assert.Equal(t, "s1", expansions[0].Data["to_star"])
	assert.InDelta(t, 10.0, expansions[0].Data["distance"], 1e-12)
}

func TestExpansionFromStarWithoutColony(t *testing.T) {
	lost := star.New("lost", "Lost", star.Vec3{X: 500}, 1, 1)
	target := star.New("target", "Target", star.Vec3{X: 550}, 1, 1)
	w := newTestWorld(t, star.New("s0", "S0", star.Vec3{}, 1, 1), lost, target)
	c := w.found(t, steadyParams("civ_1", "s0"))

	// Visited earlier, colony since abandoned.
	c.visited.Set("lost", 0)
	lost.RecordVisit("civ_1", 0)

	c.Update(10, w, &fixedRand{value: 0})

	require.True(t, c.HasVisited("target"))
	_, hasLost := c.ColonyPopulation("lost")
	assert.False(t, hasLost, "abandoned colony stays abandoned")

	colony, ok := c.ColonyPopulation("target")
	require.True(t, ok)
	assert.Equal(t, 0.0, colony)

	origin, _ := c.ColonyPopulation("s0")
	assert.InDelta(t, c.PopulationHistory()[1].Value, origin, 1e-6)
	assert.InDelta(t, sumColonies(c), c.Population(), 1e-6)

	expansions := c.history.Filter(event.KindExpansion)
	require.Len(t, expansions, 1)
	assert.Equal(t, "lost", expansions[0].Data["from_star"])
	assert.Equal(t, 0.0, expansions[0].Data["colony_size"])
}

func TestExpansionProbabilityByMotivation(t *testing.T) {
	base := DefaultParams("civ_1", "One", "s0", 0)
	base.ExpansionRate = 0.1

	probability := func(m Motivation, resources float64) float64 {
		p := base
		p.Motivation = m
		c := &Civilization{params: p}
		return c.expansionProbability(25, 100, resources)
	}

	raw := 0.1 * 0.75
	assert.InDelta(t, raw*0.8*1.5, probability(MotivationExpansion, 0.8), 1e-12)
	assert.InDelta(t, raw*0.8*1.3, probability(MotivationSeeding, 0.8), 1e-12)
	assert.InDelta(t, raw*0.8, probability(MotivationKnowledge, 0.8), 1e-12)
	assert.InDelta(t, raw*0.8, probability(MotivationResource, 0.8), 1e-12)
	assert.InDelta(t, raw*0.5*0.2, probability(MotivationResource, 0.5), 1e-12)
}

func TestExpansionStopsAtBatchBoundary(t *testing.T) {
	stars := []*star.Star{star.New("s0", "S0", star.Vec3{}, 1, 1)}
	for i := 1; i <= 15; i++ {
		stars = append(stars, star.New(fmt.Sprintf("s%d", i), "", star.Vec3{X: float64(i)}, 1, 1))
	}
	w := newTestWorld(t, stars...)
	c := w.found(t, steadyParams("civ_1", "s0"))
	rng := &fixedRand{value: 0}

	c.Update(10, w, rng)

	assert.Equal(t, ExpansionBatch, c.VisitedCount())
	assert.Equal(t, ExpansionBatch-1, rng.calls)
}

func TestExpansionNeverRevisits(t *testing.T) {
	w := newTestWorld(t,
		star.New("s0", "S0", star.Vec3{}, 1, 1),
		star.New("s1", "S1", star.Vec3{X: 10}, 1, 1),
		star.New("s2", "S2", star.Vec3{X: 20}, 1, 1),
	)
	c := w.found(t, steadyParams("civ_1", "s0"))

	for date := 10; date < 15; date++ {
		before := c.VisitedStars()
		c.Update(date, w, &fixedRand{value: 0})
		after := c.VisitedStars()

		require.GreaterOrEqual(t, len(after), len(before))
		assert.Equal(t, before, after[:len(before)])
	}

	seen := map[string]bool{}
	for _, v := range c.VisitedStars() {
		assert.False(t, seen[v.StarID], "star %s visited twice", v.StarID)
		seen[v.StarID] = true
	}
	assert.Len(t, seen, 3)
	assert.Len(t, c.history.Filter(event.KindExpansion), 2)
}

func TestExpansionRollFailsAboveProbability(t *testing.T) {
	w := newTestWorld(t,
		star.New("s0", "S0", star.Vec3{}, 1, 1),
		star.New("s1", "S1", star.Vec3{X: 10}, 1, 1),
	)
	c := w.found(t, steadyParams("civ_1", "s0"))

	c.Update(10, w, &fixedRand{value: 0.999})

	assert.False(t, c.HasVisited("s1"))
	assert.Equal(t, 1, c.ColonyCount())
}
