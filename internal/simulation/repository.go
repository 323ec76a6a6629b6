package simulation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"civsim-server/internal/event"
	"civsim-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

var _ Store = (*Repository)(nil)

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing simulation repository")
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SaveRun stores the run record and its full universe history in one
// transaction.
func (r *Repository) SaveRun(ctx context.Context, run *Run) error {
	logger := r.logger.With(
		"component", "simulation_repository",
		"operation", "save_run",
		"run_id", run.Summary.ID,
		"events", len(run.Events),
	)
	logger.Debug("Saving simulation run")

	configJSON, err := json.Marshal(run.Summary.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal run config: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	query := `
		INSERT INTO simulation_runs (id, seed, scenario, final_date, config, summary, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.ExecContext(ctx, query,
		run.Summary.ID,
		run.Summary.Config.Seed,
		string(run.Summary.Config.Scenario),
		run.Summary.FinalDate,
		string(configJSON),
		string(summaryJSON),
		run.Summary.StartedAt,
		run.Summary.CompletedAt,
	)
	if err != nil {
		logger.Error("Failed to insert simulation run", "error", err)
		return fmt.Errorf("failed to insert simulation run: %w", err)
	}

	if err := r.insertEvents(ctx, tx, run.Summary.ID, run.Events); err != nil {
		logger.Error("Failed to insert simulation events", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit simulation run", "error", err)
		return fmt.Errorf("failed to commit simulation run: %w", err)
	}

	logger.Info("Simulation run saved")
	return nil
}

// insertEvents writes the events with a single statement. Order is kept
// in the seq column.
func (r *Repository) insertEvents(ctx context.Context, exec database.Executor, runID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	query := `
		INSERT INTO simulation_events (run_id, seq, date, kind, data)
		SELECT
			$1::uuid,
			e.ord,
			(e.value->>'date')::integer,
			e.value->>'event',
			(e.value->'data')::jsonb
		FROM json_array_elements($2::json) WITH ORDINALITY AS e(value, ord)`

	if _, err := exec.ExecContext(ctx, query, runID, string(eventsJSON)); err != nil {
		return fmt.Errorf("failed to batch insert events: %w", err)
	}
	return nil
}

// GetSummary returns nil, nil when the run does not exist.
func (r *Repository) GetSummary(ctx context.Context, id string) (*Summary, error) {
	logger := r.logger.With("component", "simulation_repository", "operation", "get_summary", "run_id", id)
	logger.Debug("Getting simulation summary")

	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT summary FROM simulation_runs WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Simulation run not found")
			return nil, nil
		}
		logger.Error("Database error getting simulation summary", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode simulation summary: %w", err)
	}
	return &summary, nil
}

func (r *Repository) ListSummaries(ctx context.Context, limit int) ([]Summary, error) {
	logger := r.logger.With("component", "simulation_repository", "operation", "list_summaries")
	logger.Debug("Listing simulation summaries", "limit", limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT summary
		FROM simulation_runs
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		logger.Error("Failed to query simulation runs", "error", err)
		return nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	summaries := []Summary{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			logger.Error("Failed to scan simulation summary", "error", err)
			return nil, fmt.Errorf("failed to scan simulation summary: %w", err)
		}
		var summary Summary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return nil, fmt.Errorf("failed to decode simulation summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating simulation runs", "error", err)
		return nil, fmt.Errorf("error iterating simulation runs: %w", err)
	}
	return summaries, nil
}

// GetEvents returns nil, nil when the run does not exist.
func (r *Repository) GetEvents(ctx context.Context, id string) ([]event.Event, error) {
	logger := r.logger.With("component", "simulation_repository", "operation", "get_events", "run_id", id)
	logger.Debug("Getting simulation events")

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM simulation_runs WHERE id = $1)`, id).Scan(&exists); err != nil {
		logger.Error("Database error checking simulation run", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !exists {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date, kind, data
		FROM simulation_events
		WHERE run_id = $1
		ORDER BY seq`, id)
	if err != nil {
		logger.Error("Failed to query simulation events", "error", err)
		return nil, fmt.Errorf("failed to query simulation events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	events := []event.Event{}
	for rows.Next() {
		var (
			e    event.Event
			kind string
			raw  []byte
		)
		if err := rows.Scan(&e.Date, &kind, &raw); err != nil {
			logger.Error("Failed to scan simulation event", "error", err)
			return nil, fmt.Errorf("failed to scan simulation event: %w", err)
		}
		e.Kind = event.Kind(kind)
		if err := json.Unmarshal(raw, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating simulation events", "error", err)
		return nil, fmt.Errorf("error iterating simulation events: %w", err)
	}
	return events, nil
}
