package simulation

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"civsim-server/internal/civilization"
	"civsim-server/internal/event"
	"civsim-server/internal/shared/config"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/universe"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Store persists finished runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetSummary(ctx context.Context, id string) (*Summary, error)
	ListSummaries(ctx context.Context, limit int) ([]Summary, error)
	GetEvents(ctx context.Context, id string) ([]event.Event, error)
}

// SummaryCache caches summaries by run id. Get returns nil, nil on a miss.
type SummaryCache interface {
	Get(ctx context.Context, id string) (*Summary, error)
	Set(ctx context.Context, summary *Summary) error
}

// ListLimit caps the number of summaries returned by List.
const ListLimit = 50

type Service struct {
	cfg    config.SimulationConfig
	store  Store
	cache  SummaryCache
	logger *slog.Logger

	mu   sync.RWMutex
	runs *orderedmap.OrderedMap[string, *Run]

	now func() time.Time
}

// NewService returns a run service. store and cache may be nil.
func NewService(cfg config.SimulationConfig, store Store, cache SummaryCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("Initializing simulation service",
		"persistent", store != nil,
		"cached", cache != nil,
		"retained_runs", cfg.RetainedRuns,
	)

	return &Service{
		cfg:    cfg,
		store:  store,
		cache:  cache,
		logger: logger,
		runs:   orderedmap.New[string, *Run](),
		now:    time.Now,
	}
}

// Run executes a full simulation synchronously and records the result.
// The context is checked between ticks.
func (s *Service) Run(ctx context.Context, cfg RunConfig) (*Run, error) {
	cfg = cfg.WithDefaults(s.cfg)
	if err := cfg.Validate(s.cfg.MaxSteps, s.cfg.MaxStars); err != nil {
		return nil, err
	}

	started := s.now()
	if cfg.Seed == 0 {
		cfg.Seed = started.UnixNano()
	}

	id := uuid.NewString()
	logger := s.logger.With("component", "simulation_service", "operation", "run", "run_id", id)
	logger.Info("Starting simulation",
		"seed", cfg.Seed,
		"scenario", cfg.Scenario,
		"stars", cfg.StarCount,
		"civilizations", cfg.CivilizationCount,
		"steps", cfg.Steps,
	)

	rng := rand.New(rand.NewSource(cfg.Seed))
	u, civs, err := Prepare(cfg, rng, logger)
	if err != nil {
		logger.Debug("Failed to prepare simulation", "error", err)
		return nil, err
	}

	for step := 0; step < cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Simulation cancelled", "date", u.CurrentDate(), "error", err)
			return nil, errors.WrapInternal("simulation cancelled", err)
		}
		u.Update(rng)
	}

	summary := Summarize(id, cfg, u, civs)
	summary.StartedAt = started
	summary.CompletedAt = s.now()

	run := &Run{Summary: summary, Events: u.History(), Universe: u}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			logger.Error("Failed to persist simulation", "error", err)
			return nil, errors.WrapExternal("failed to persist simulation", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, &run.Summary); err != nil {
			logger.Warn("Failed to cache simulation summary", "error", err)
		}
	}
	s.retain(run)

	logger.Info("Simulation completed",
		"final_date", summary.FinalDate,
		"active_civilizations", summary.ActiveCivilizations,
		"inhabited_stars", summary.InhabitedStars,
		"duration", summary.CompletedAt.Sub(started),
	)
	return run, nil
}

// Submit runs cfg on behalf of an API client. On top of Run's validation
// it rejects runs whose stars times steps exceed MaxRequestWork.
func (s *Service) Submit(ctx context.Context, cfg RunConfig) (*Run, error) {
	cfg = cfg.WithDefaults(s.cfg)
	if limit := s.cfg.MaxRequestWork; limit > 0 && cfg.Work() > limit {
		return nil, errors.Validationf("run too large: %d stars times %d steps exceeds %d", cfg.StarCount, cfg.Steps, limit)
	}
	return s.Run(ctx, cfg)
}

// Prepare generates the universe of cfg and founds its civilizations,
// drawing from rng in that order. cfg must already be validated.
func Prepare(cfg RunConfig, rng *rand.Rand, logger *slog.Logger) (*universe.Universe, []*civilization.Civilization, error) {
	u, err := universe.New(universe.Config{
		Size:         cfg.UniverseSize,
		StarCount:    cfg.StarCount,
		GridCellSize: cfg.GridCellSize,
	}, rng, logger)
	if err != nil {
		return nil, nil, err
	}

	civs, err := NewBuilder(rng).Build(u, cfg)
	if err != nil {
		return nil, nil, err
	}
	return u, civs, nil
}

func (s *Service) retain(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs.Set(run.Summary.ID, run)
	for s.cfg.RetainedRuns > 0 && s.runs.Len() > s.cfg.RetainedRuns {
		oldest := s.runs.Oldest()
		s.runs.Delete(oldest.Key)
	}
}

func (s *Service) retained(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.Get(id)
}

// Get returns the summary of run id from memory, the cache or the store.
func (s *Service) Get(ctx context.Context, id string) (*Summary, error) {
	logger := s.logger.With("component", "simulation_service", "operation", "get", "run_id", id)

	if run, ok := s.retained(id); ok {
		summary := run.Summary
		return &summary, nil
	}

	if s.cache != nil {
		summary, err := s.cache.Get(ctx, id)
		if err != nil {
			logger.Warn("Summary cache lookup failed", "error", err)
		} else if summary != nil {
			logger.Debug("Summary served from cache")
			return summary, nil
		}
	}

	if s.store != nil {
		summary, err := s.store.GetSummary(ctx, id)
		if err != nil {
			return nil, errors.WrapExternal("failed to load simulation", err)
		}
		if summary != nil {
			if s.cache != nil {
				if err := s.cache.Set(ctx, summary); err != nil {
					logger.Warn("Failed to cache simulation summary", "error", err)
				}
			}
			return summary, nil
		}
	}

	return nil, errors.NotFoundf("simulation %s not found", id)
}

// List returns the most recent summaries, newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	if s.store != nil {
		summaries, err := s.store.ListSummaries(ctx, ListLimit)
		if err != nil {
			return nil, errors.WrapExternal("failed to list simulations", err)
		}
		return summaries, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, s.runs.Len())
	for pair := s.runs.Newest(); pair != nil && len(summaries) < ListLimit; pair = pair.Prev() {
		summaries = append(summaries, pair.Value.Summary)
	}
	return summaries, nil
}

// Events returns the universe history of run id.
func (s *Service) Events(ctx context.Context, id string) ([]event.Event, error) {
	if run, ok := s.retained(id); ok {
		return run.Events, nil
	}

	if s.store != nil {
		events, err := s.store.GetEvents(ctx, id)
		if err != nil {
			return nil, errors.WrapExternal("failed to load simulation events", err)
		}
		if events != nil {
			return events, nil
		}
	}

	return nil, errors.NotFoundf("simulation %s not found", id)
}
