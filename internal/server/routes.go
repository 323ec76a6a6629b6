package server

import (
	"log/slog"
	"net/http"

	"civsim-server/internal/middleware"
	serverHandlers "civsim-server/internal/server/handlers"
	"civsim-server/internal/shared/database"
	"civsim-server/internal/shared/redis"
	"civsim-server/internal/simulation"
	simulationHandlers "civsim-server/internal/simulation/handlers"
)

type Routes struct {
	db                *database.DB
	redis             *redis.Client
	simulationService *simulation.Service
	jwtSecret         string
	logger            *slog.Logger
}

func NewRoutes(db *database.DB, rdb *redis.Client, simulationService *simulation.Service, jwtSecret string, logger *slog.Logger) *Routes {
	return &Routes{
		db:                db,
		redis:             rdb,
		simulationService: simulationService,
		jwtSecret:         jwtSecret,
		logger:            logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.redis)
	simulationHandler := simulationHandlers.NewSimulationHandler(r.simulationService)

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.HandleFunc("GET /api/simulations", simulationHandler.GetSimulations)
	mux.HandleFunc("GET /api/simulations/{id}", simulationHandler.GetSimulation)
	mux.HandleFunc("GET /api/simulations/{id}/events", simulationHandler.GetSimulationEvents)

	// Operator endpoints
	operatorEndpoints := []string{}
	if r.jwtSecret != "" {
		mux.Handle("POST /api/simulations", middleware.RequireOperator(r.jwtSecret, http.HandlerFunc(simulationHandler.CreateSimulation)))
		operatorEndpoints = append(operatorEndpoints, "POST /api/simulations")
	} else {
		logger.Warn("JWT secret not configured, simulation runs can only be started from the CLI")
	}

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/simulations", "/api/simulations/{id}", "/api/simulations/{id}/events"},
		"operator_endpoints", operatorEndpoints,
	)

	return mux
}
