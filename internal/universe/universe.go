package universe

import (
	"log/slog"

	"civsim-server/internal/civilization"
	"civsim-server/internal/event"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/star"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StatisticsInterval is the tick period of statistics snapshots.
const StatisticsInterval = 10

type Config struct {
	Size         float64
	StarCount    int
	GridCellSize float64
}

// Diagnostics counts situations that are skipped silently during ticks.
type Diagnostics struct {
	SkippedUpdates int `json:"skipped_updates"`
	LookupMisses   int `json:"lookup_misses"`
}

var _ civilization.World = (*Universe)(nil)

// Universe owns the star field, the civilization registry and the global
// history. Civilizations are updated in registration order.
type Universe struct {
	field         *star.Field
	civilizations *orderedmap.OrderedMap[string, *civilization.Civilization]
	currentDate   int
	history       event.Log
	diagnostics   Diagnostics
	logger        *slog.Logger

	// base is the caller's logger, handed to civilizations.
	base *slog.Logger
}

// New generates a star field from rng and returns an empty universe
// around it.
func New(cfg Config, rng star.Rand, logger *slog.Logger) (*Universe, error) {
	fieldConfig := star.DefaultFieldConfig(cfg.Size)
	fieldConfig.GridCellSize = cfg.GridCellSize

	field, err := star.Generate(cfg.StarCount, fieldConfig, rng)
	if err != nil {
		return nil, err
	}
	return NewWithField(field, logger)
}

func NewWithField(field *star.Field, logger *slog.Logger) (*Universe, error) {
	if field == nil || field.Len() == 0 {
		return nil, errors.Validation("universe requires at least one star")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Universe{
		field:         field,
		civilizations: orderedmap.New[string, *civilization.Civilization](),
		logger:        logger.With("component", "universe"),
		base:          logger,
	}, nil
}

func (u *Universe) Field() *star.Field {
	return u.field
}

func (u *Universe) Size() float64 {
	return u.field.Size()
}

func (u *Universe) CurrentDate() int {
	return u.currentDate
}

func (u *Universe) Star(id string) (*star.Star, bool) {
	return u.field.Star(id)
}

func (u *Universe) Stars() []*star.Star {
	return u.field.Stars()
}

func (u *Universe) NearbyStars(pos star.Vec3, rangeLimit float64) []*star.Star {
	return u.field.Nearby(pos, rangeLimit)
}

func (u *Universe) Civilization(id string) (*civilization.Civilization, bool) {
	return u.civilizations.Get(id)
}

// Civilizations returns the registered civilizations in update order.
func (u *Universe) Civilizations() []*civilization.Civilization {
	out := make([]*civilization.Civilization, 0, u.civilizations.Len())
	for pair := u.civilizations.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (u *Universe) CivilizationCount() int {
	return u.civilizations.Len()
}

// NewCivilization founds a civilization from p and registers it.
func (u *Universe) NewCivilization(p civilization.Params) (*civilization.Civilization, error) {
	if _, exists := u.civilizations.Get(p.ID); exists {
		return nil, errors.Conflictf("civilization %s already exists", p.ID)
	}
	civ, err := civilization.New(p, u.field, u.base)
	if err != nil {
		return nil, err
	}
	if err := u.AddCivilization(civ); err != nil {
		return nil, err
	}
	return civ, nil
}

func (u *Universe) AddCivilization(civ *civilization.Civilization) error {
	if civ == nil {
		return errors.Validation("civilization must not be nil")
	}
	if _, exists := u.civilizations.Get(civ.ID()); exists {
		return errors.Conflictf("civilization %s already exists", civ.ID())
	}
	origin := civ.Params().OriginStarID
	if _, ok := u.field.Star(origin); !ok {
		return errors.NotFoundf("origin star %s not found", origin)
	}

	u.civilizations.Set(civ.ID(), civ)
	u.history.Append(event.NewCivilization(u.currentDate, civ.ID(), civ.Name(), origin))

	u.logger.Debug("Civilization added", "civilization_id", civ.ID(), "origin_star", origin, "date", u.currentDate)
	return nil
}

// RemoveCivilization deregisters id. It is a no-op returning false when
// id is not registered, so a civilization is removed at most once.
func (u *Universe) RemoveCivilization(id string) bool {
	civ, ok := u.civilizations.Delete(id)
	if !ok {
		return false
	}

	existedFor := u.currentDate - civ.Params().FoundingDate
	u.history.Append(event.CivilizationExtinct(u.currentDate, id, civ.Name(), existedFor))

	u.logger.Debug("Civilization removed", "civilization_id", id, "date", u.currentDate, "existed_for", existedFor)
	return true
}

// Update advances the clock by one tick and updates every civilization
// registered at the start of the tick, in registration order. Updates
// mutate live state, so a civilization sees the effects of those updated
// before it. One removed earlier in the same tick is skipped.
func (u *Universe) Update(rng civilization.Rand) {
	u.currentDate++

	for _, civ := range u.Civilizations() {
		if _, ok := u.civilizations.Get(civ.ID()); !ok {
			u.diagnostics.SkippedUpdates++
			continue
		}
		civ.Update(u.currentDate, u, rng)
	}

	if u.currentDate%StatisticsInterval == 0 {
		u.logStatistics()
	}
}

// Run executes steps ticks, calling after (when not nil) after each one.
func (u *Universe) Run(steps int, rng civilization.Rand, after func(*Universe)) {
	for i := 0; i < steps; i++ {
		u.Update(rng)
		if after != nil {
			after(u)
		}
	}
}

func (u *Universe) logStatistics() {
	total := u.TotalPopulation()
	inhabited := u.InhabitedStars()
	count := u.civilizations.Len()

	u.history.Append(event.Statistics(u.currentDate, count, total, inhabited))
	u.logger.Debug("Statistics recorded",
		"date", u.currentDate,
		"civilizations", count,
		"total_population", total,
		"inhabited_stars", inhabited,
	)
}

func (u *Universe) TotalPopulation() float64 {
	total := 0.0
	for pair := u.civilizations.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value.Population()
	}
	return total
}

// InhabitedStars counts the distinct stars visited by any registered
// civilization.
func (u *Universe) InhabitedStars() int {
	seen := make(map[string]struct{})
	for pair := u.civilizations.Oldest(); pair != nil; pair = pair.Next() {
		for _, v := range pair.Value.VisitedStars() {
			seen[v.StarID] = struct{}{}
		}
	}
	return len(seen)
}

func (u *Universe) History() []event.Event {
	return u.history.Events()
}

func (u *Universe) Diagnostics() Diagnostics {
	d := u.diagnostics
	for pair := u.civilizations.Oldest(); pair != nil; pair = pair.Next() {
		d.LookupMisses += pair.Value.LookupMisses()
	}
	return d
}
