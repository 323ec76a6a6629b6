package simulation

import (
	"fmt"

	"civsim-server/internal/civilization"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/universe"
)

// OriginCandidates is how many of the richest stars a random
// civilization may be founded at.
const OriginCandidates = 20

// classicRanks are the resource ranks of the classic scenario's origins.
var classicRanks = []int{0, 10, 20}

// Source is the random source a Builder draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Builder founds civilizations in a universe from a run's seeded source.
type Builder struct {
	rng Source
}

func NewBuilder(rng Source) *Builder {
	return &Builder{rng: rng}
}

func (b *Builder) uniform(low, high float64) float64 {
	return low + b.rng.Float64()*(high-low)
}

// RandomCivilizations founds n civilizations with randomised traits, each
// at one of the richest stars of u.
func (b *Builder) RandomCivilizations(u *universe.Universe, n int) ([]*civilization.Civilization, error) {
	if n <= 0 {
		return nil, errors.Validationf("civilization count must be positive, got %d", n)
	}

	candidates := u.Field().TopByResources(OriginCandidates)
	civs := make([]*civilization.Civilization, 0, n)

	for i := 0; i < n; i++ {
		origin := candidates[b.rng.Intn(len(candidates))]

		id := fmt.Sprintf("civ_%d", i+1)
		p := civilization.DefaultParams(id, fmt.Sprintf("Civilization %d", i+1), origin.ID, u.CurrentDate())
		p.ReproductionRate = b.uniform(0.005, 0.015)
		p.IndividualLifespan = b.uniform(80, 120)
		p.ExpansionRate = b.uniform(0.03, 0.08)
		p.ExpansionRange = b.uniform(80, 120)
		p.CooperationFactor = b.uniform(0.3, 0.7)
		p.AggressionFactor = b.uniform(0.3, 0.7)
		p.TechLevel = b.uniform(0.8, 1.2)
		p.TechAdvancementRate = b.uniform(0.003, 0.008)
		p.TimeHorizon = b.uniform(500, 1500)
		p.BiologicalType = civilization.BiologicalTypes[b.rng.Intn(len(civilization.BiologicalTypes))]
		p.OrganizationType = civilization.OrganizationTypes[b.rng.Intn(len(civilization.OrganizationTypes))]
		p.Motivation = civilization.Motivations[b.rng.Intn(len(civilization.Motivations))]

		civ, err := u.NewCivilization(p)
		if err != nil {
			return nil, fmt.Errorf("failed to found %s: %w", id, err)
		}
		civs = append(civs, civ)
	}
	return civs, nil
}

// ClassicScenario founds the Explorers, Scholars and Conquerors at the
// stars ranked 0, 10 and 20 by resources. It draws nothing from the source.
func (b *Builder) ClassicScenario(u *universe.Universe) ([]*civilization.Civilization, error) {
	needed := classicRanks[len(classicRanks)-1] + 1
	ranked := u.Field().TopByResources(needed)
	if len(ranked) < needed {
		return nil, errors.Validationf("classic scenario needs at least %d stars, got %d", needed, len(ranked))
	}

	date := u.CurrentDate()

	explorers := civilization.DefaultParams("civ_1", "Explorers", ranked[classicRanks[0]].ID, date)
	explorers.ExpansionRate = 0.08
	explorers.CooperationFactor = 0.7
	explorers.AggressionFactor = 0.3
	explorers.Motivation = civilization.MotivationExpansion

	scholars := civilization.DefaultParams("civ_2", "Scholars", ranked[classicRanks[1]].ID, date)
	scholars.Population = 8e5
	scholars.ReproductionRate = 0.008
	scholars.IndividualLifespan = 120
	scholars.ExpansionRate = 0.03
	scholars.ExpansionRange = 80
	scholars.CooperationFactor = 0.8
	scholars.AggressionFactor = 0.2
	scholars.TechLevel = 1.2
	scholars.TechAdvancementRate = 0.01
	scholars.TimeHorizon = 1500
	scholars.BiologicalType = civilization.BiologicalTypeHybrid
	scholars.OrganizationType = civilization.OrganizationTypeHive
	scholars.Motivation = civilization.MotivationKnowledge

	conquerors := civilization.DefaultParams("civ_3", "Conquerors", ranked[classicRanks[2]].ID, date)
	conquerors.Population = 1.2e6
	conquerors.ReproductionRate = 0.012
	conquerors.IndividualLifespan = 80
	conquerors.ExpansionRate = 0.06
	conquerors.ExpansionRange = 90
	conquerors.CooperationFactor = 0.2
	conquerors.AggressionFactor = 0.8
	conquerors.TechLevel = 0.9
	conquerors.TechAdvancementRate = 0.004
	conquerors.TimeHorizon = 500
	conquerors.Motivation = civilization.MotivationResource

	civs := make([]*civilization.Civilization, 0, len(classicRanks))
	for _, p := range []civilization.Params{explorers, scholars, conquerors} {
		civ, err := u.NewCivilization(p)
		if err != nil {
			return nil, fmt.Errorf("failed to found %s: %w", p.ID, err)
		}
		civs = append(civs, civ)
	}
	return civs, nil
}

// Build founds the civilizations of cfg's scenario.
func (b *Builder) Build(u *universe.Universe, cfg RunConfig) ([]*civilization.Civilization, error) {
	switch cfg.Scenario {
	case ScenarioClassic:
		return b.ClassicScenario(u)
	case ScenarioRandom, "":
		return b.RandomCivilizations(u, cfg.CivilizationCount)
	default:
		return nil, errors.Validationf("unknown scenario %q", cfg.Scenario)
	}
}
