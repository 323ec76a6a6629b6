package simulation

import (
	"time"

	"civsim-server/internal/civilization"
	"civsim-server/internal/event"
	"civsim-server/internal/shared/config"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/shared/number"
	"civsim-server/internal/universe"
)

type Scenario string

const (
	ScenarioRandom  Scenario = "random"
	ScenarioClassic Scenario = "classic"
)

func (s Scenario) Valid() bool {
	return s == ScenarioRandom || s == ScenarioClassic
}

// RunConfig describes one simulation run. Zero fields are filled from the
// configured defaults before validation.
type RunConfig struct {
	StarCount         int      `json:"star_count"`
	CivilizationCount int      `json:"civilization_count"`
	Steps             int      `json:"steps"`
	UniverseSize      float64  `json:"universe_size"`
	Seed              int64    `json:"seed"`
	Scenario          Scenario `json:"scenario"`
	GridCellSize      float64  `json:"grid_cell_size"`
}

// WithDefaults returns c with every zero field replaced by the matching
// default. A zero seed stays zero and is resolved when the run starts.
func (c RunConfig) WithDefaults(defaults config.SimulationConfig) RunConfig {
	if c.StarCount == 0 {
		c.StarCount = defaults.StarCount
	}
	if c.CivilizationCount == 0 {
		c.CivilizationCount = defaults.CivilizationCount
	}
	if c.Steps == 0 {
		c.Steps = defaults.Steps
	}
	if c.UniverseSize == 0 {
		c.UniverseSize = defaults.UniverseSize
	}
	if c.Seed == 0 {
		c.Seed = defaults.Seed
	}
	if c.Scenario == "" {
		c.Scenario = ScenarioRandom
	}
	if c.GridCellSize == 0 {
		c.GridCellSize = defaults.GridCellSize
	}
	return c
}

// Work is the stars times steps product of c, a proxy for run time.
func (c RunConfig) Work() int {
	if c.StarCount <= 0 || c.Steps <= 0 {
		return 0
	}
	return c.StarCount * c.Steps
}

func (c RunConfig) Validate(maxSteps, maxStars int) error {
	if c.StarCount <= 0 {
		return errors.Validationf("star count must be positive, got %d", c.StarCount)
	}
	if maxStars > 0 && c.StarCount > maxStars {
		return errors.Validationf("star count must be at most %d, got %d", maxStars, c.StarCount)
	}
	if c.Steps <= 0 {
		return errors.Validationf("steps must be positive, got %d", c.Steps)
	}
	if maxSteps > 0 && c.Steps > maxSteps {
		return errors.Validationf("steps must be at most %d, got %d", maxSteps, c.Steps)
	}
	if c.UniverseSize <= 0 {
		return errors.Validationf("universe size must be positive, got %v", c.UniverseSize)
	}
	if c.GridCellSize < 0 {
		return errors.Validationf("grid cell size must not be negative, got %v", c.GridCellSize)
	}
	if !c.Scenario.Valid() {
		return errors.Validationf("unknown scenario %q", c.Scenario)
	}
	if c.Scenario == ScenarioRandom && c.CivilizationCount <= 0 {
		return errors.Validationf("civilization count must be positive, got %d", c.CivilizationCount)
	}
	return nil
}

// CivilizationSummary reports one civilization. Tech level is unbounded
// and may be reported as "Infinity".
type CivilizationSummary struct {
	ID                string                        `json:"id"`
	Name              string                        `json:"name"`
	Motivation        civilization.Motivation       `json:"motivation"`
	BiologicalType    civilization.BiologicalType   `json:"biological_type"`
	OrganizationType  civilization.OrganizationType `json:"organization_type"`
	OriginStar        string                        `json:"origin_star"`
	StarsVisited      int                           `json:"stars_visited"`
	ActiveColonies    int                           `json:"active_colonies"`
	Population        number.Float                  `json:"population"`
	LargestColonyStar string                        `json:"largest_colony_star,omitempty"`
	LargestColony     number.Float                  `json:"largest_colony"`
	TechLevel         number.Float                  `json:"tech_level"`
	Extinct           bool                          `json:"extinct"`
}

// Summary is the final report of a finished run.
type Summary struct {
	ID                  string                `json:"id"`
	Config              RunConfig             `json:"config"`
	FinalDate           int                   `json:"final_date"`
	StarCount           int                   `json:"star_count"`
	InhabitedStars      int                   `json:"inhabited_stars"`
	InhabitedPercent    number.Float          `json:"inhabited_percent"`
	ActiveCivilizations int                   `json:"active_civilizations"`
	TotalPopulation     number.Float          `json:"total_population"`
	Civilizations       []CivilizationSummary `json:"civilizations"`
	Statistics          []event.Event         `json:"statistics"`
	Diagnostics         universe.Diagnostics  `json:"diagnostics"`
	StartedAt           time.Time             `json:"started_at"`
	CompletedAt         time.Time             `json:"completed_at"`
}

// Run is a finished simulation held in memory.
type Run struct {
	Summary  Summary
	Events   []event.Event
	Universe *universe.Universe
}

// Summarize reports on u after a run. civs is every civilization the run
// founded, including the ones that went extinct.
func Summarize(id string, cfg RunConfig, u *universe.Universe, civs []*civilization.Civilization) Summary {
	summary := Summary{
		ID:                  id,
		Config:              cfg,
		FinalDate:           u.CurrentDate(),
		StarCount:           len(u.Stars()),
		InhabitedStars:      u.InhabitedStars(),
		ActiveCivilizations: u.CivilizationCount(),
		TotalPopulation:     number.Float(u.TotalPopulation()),
		Civilizations:       make([]CivilizationSummary, 0, len(civs)),
		Diagnostics:         u.Diagnostics(),
	}
	if summary.StarCount > 0 {
		summary.InhabitedPercent = number.Float(float64(summary.InhabitedStars) / float64(summary.StarCount) * 100)
	}

	for _, civ := range civs {
		p := civ.Params()
		_, active := u.Civilization(civ.ID())
		cs := CivilizationSummary{
			ID:               civ.ID(),
			Name:             civ.Name(),
			Motivation:       p.Motivation,
			BiologicalType:   p.BiologicalType,
			OrganizationType: p.OrganizationType,
			OriginStar:       p.OriginStarID,
			StarsVisited:     civ.VisitedCount(),
			ActiveColonies:   civ.ColonyCount(),
			Population:       number.Float(civ.Population()),
			TechLevel:        number.Float(civ.TechLevel()),
			Extinct:          !active || civ.Extinct(),
		}
		if largest, ok := civ.LargestColony(); ok {
			cs.LargestColonyStar = largest.StarID
			cs.LargestColony = number.Float(largest.Population)
		}
		summary.Civilizations = append(summary.Civilizations, cs)
	}

	for _, e := range u.History() {
		if e.Kind == event.KindStatistics {
			summary.Statistics = append(summary.Statistics, e)
		}
	}
	if summary.Statistics == nil {
		summary.Statistics = []event.Event{}
	}
	return summary
}
