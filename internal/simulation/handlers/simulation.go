package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"civsim-server/internal/event"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/shared/response"
	"civsim-server/internal/simulation"
)

type SimulationHandler struct {
	service *simulation.Service
}

func NewSimulationHandler(service *simulation.Service) *SimulationHandler {
	return &SimulationHandler{service: service}
}

// CreateSimulation runs a simulation synchronously. An empty body runs
// with the configured defaults. Runs larger than SIM_MAX_REQUEST_WORK are
// rejected so they finish within the server write timeout.
func (h *SimulationHandler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_simulation")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var cfg simulation.RunConfig

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	run, err := h.service.Submit(ctx, cfg)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, run.Summary)
}

func (h *SimulationHandler) GetSimulations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_simulations")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	summaries, err := h.service.List(ctx)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if summaries == nil {
		summaries = []simulation.Summary{}
	}

	response.Success(w, http.StatusOK, summaries)
}

func (h *SimulationHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_simulation")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id := r.PathValue("id")
	if id == "" {
		response.Error(w, r, logger, errors.Validation("simulation ID is required"))
		return
	}

	summary, err := h.service.Get(ctx, id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, summary)
}

// GetSimulationEvents returns the universe history of a run, optionally
// filtered with ?kind=.
func (h *SimulationHandler) GetSimulationEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_simulation_events")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id := r.PathValue("id")
	if id == "" {
		response.Error(w, r, logger, errors.Validation("simulation ID is required"))
		return
	}

	kind := event.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		response.Error(w, r, logger, errors.Validationf("unknown event kind %q", kind))
		return
	}

	events, err := h.service.Events(ctx, id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	filtered := make([]event.Event, 0, len(events))
	for _, e := range events {
		if kind == "" || e.Kind == kind {
			filtered = append(filtered, e)
		}
	}

	response.Success(w, http.StatusOK, filtered)
}
