package civilization

import (
	"encoding/json"
	"log/slog"

	"civsim-server/internal/event"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/shared/number"
	"civsim-server/internal/star"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StarLookup resolves star identifiers.
type StarLookup interface {
	Star(id string) (*star.Star, bool)
}

// World is what a civilization sees of the universe during its update.
// Lookups and removals act on live state: a civilization removed earlier
// in the same tick is no longer returned by Civilization.
type World interface {
	StarLookup
	NearbyStars(pos star.Vec3, rangeLimit float64) []*star.Star
	Civilization(id string) (*Civilization, bool)
	RemoveCivilization(id string) bool
}

// Rand is the source of expansion rolls.
type Rand interface {
	Float64() float64
}

// Sample is one (date, value) point of a per-tick history.
type Sample struct {
	Date  int     `json:"date"`
	Value float64 `json:"value"`
}

type sampleJSON struct {
	Date  int          `json:"date"`
	Value number.Float `json:"value"`
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(sampleJSON{Date: s.Date, Value: number.Float(s.Value)})
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw sampleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Date, s.Value = raw.Date, float64(raw.Value)
	return nil
}

// Colony is a civilization's local population at one star.
type Colony struct {
	StarID     string  `json:"star_id"`
	Population float64 `json:"population"`
}

// VisitedStar is a star the civilization has recorded a first visit for.
type VisitedStar struct {
	StarID string `json:"star_id"`
	Date   int    `json:"date"`
}

type Civilization struct {
	params    Params
	techLevel float64

	// visited and colonies iterate in insertion order; colonies keys are
	// always a subset of visited keys.
	visited  *orderedmap.OrderedMap[string, int]
	colonies *orderedmap.OrderedMap[string, float64]

	population      float64
	populationDirty bool

	history           event.Log
	techHistory       []Sample
	populationHistory []Sample

	lookupMisses int
	logger       *slog.Logger
}

// New founds a civilization at its origin star, recording the visit on
// the star and a founding event.
func New(p Params, stars StarLookup, logger *slog.Logger) (*Civilization, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	origin, ok := stars.Star(p.OriginStarID)
	if !ok {
		return nil, errors.NotFoundf("origin star %s not found", p.OriginStarID)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Civilization{
		params:    p,
		techLevel: p.TechLevel,
		visited:   orderedmap.New[string, int](),
		colonies:  orderedmap.New[string, float64](),
		logger:    logger.With("component", "civilization", "civilization_id", p.ID),
	}

	c.visited.Set(origin.ID, p.FoundingDate)
	c.setColony(origin.ID, p.Population)
	c.techHistory = append(c.techHistory, Sample{Date: p.FoundingDate, Value: p.TechLevel})
	c.populationHistory = append(c.populationHistory, Sample{Date: p.FoundingDate, Value: p.Population})

	origin.RecordVisit(p.ID, p.FoundingDate)
	c.history.Append(event.Founding(p.FoundingDate, origin.ID, p.TechLevel, p.Population))

	return c, nil
}

func (c *Civilization) ID() string {
	return c.params.ID
}

func (c *Civilization) Name() string {
	return c.params.Name
}

// Params returns the founding genome.
func (c *Civilization) Params() Params {
	return c.params
}

func (c *Civilization) TechLevel() float64 {
	return c.techLevel
}

// Population is the sum of all colony populations.
func (c *Civilization) Population() float64 {
	if c.populationDirty {
		total := 0.0
		for pair := c.colonies.Oldest(); pair != nil; pair = pair.Next() {
			total += pair.Value
		}
		c.population = total
		c.populationDirty = false
	}
	return c.population
}

func (c *Civilization) ColonyPopulation(starID string) (float64, bool) {
	return c.colonies.Get(starID)
}

func (c *Civilization) ColonyCount() int {
	return c.colonies.Len()
}

// Colonies returns a copy of the colony map in founding order.
func (c *Civilization) Colonies() []Colony {
	out := make([]Colony, 0, c.colonies.Len())
	for pair := c.colonies.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Colony{StarID: pair.Key, Population: pair.Value})
	}
	return out
}

// LargestColony returns the most populous colony; ok is false when the
// civilization holds none.
func (c *Civilization) LargestColony() (Colony, bool) {
	var best Colony
	found := false
	for pair := c.colonies.Oldest(); pair != nil; pair = pair.Next() {
		if !found || pair.Value > best.Population {
			best = Colony{StarID: pair.Key, Population: pair.Value}
			found = true
		}
	}
	return best, found
}

func (c *Civilization) HasVisited(starID string) bool {
	_, ok := c.visited.Get(starID)
	return ok
}

func (c *Civilization) VisitedCount() int {
	return c.visited.Len()
}

// VisitedStars returns a copy of the visit record in first-visit order.
func (c *Civilization) VisitedStars() []VisitedStar {
	out := make([]VisitedStar, 0, c.visited.Len())
	for pair := c.visited.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, VisitedStar{StarID: pair.Key, Date: pair.Value})
	}
	return out
}

func (c *Civilization) History() []event.Event {
	return c.history.Events()
}

func (c *Civilization) RecentHistory(n int) []event.Event {
	return c.history.Last(n)
}

func (c *Civilization) TechHistory() []Sample {
	return append([]Sample(nil), c.techHistory...)
}

func (c *Civilization) PopulationHistory() []Sample {
	return append([]Sample(nil), c.populationHistory...)
}

// LookupMisses counts stars or civilizations that could not be resolved
// during updates. Misses never change the outcome of a tick.
func (c *Civilization) LookupMisses() int {
	return c.lookupMisses
}

// Extinct reports whether the civilization has lost every colony.
func (c *Civilization) Extinct() bool {
	return c.colonies.Len() == 0
}

func (c *Civilization) setColony(starID string, population float64) {
	c.colonies.Set(starID, population)
	c.populationDirty = true
}

func (c *Civilization) removeColony(starID string) {
	c.colonies.Delete(starID)
	c.populationDirty = true
}

func (c *Civilization) colonyKeys() []string {
	keys := make([]string, 0, c.colonies.Len())
	for pair := c.colonies.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (c *Civilization) visitedKeys() []string {
	keys := make([]string, 0, c.visited.Len())
	for pair := c.visited.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
