package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"civsim-server/internal/shared/database"
	"civsim-server/internal/shared/redis"
	"civsim-server/internal/shared/response"
)

const statusDisconnected = "disconnected"

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
}

type HealthHandler struct {
	db    *database.DB
	redis *redis.Client
}

// NewHealthHandler reports on db and rdb; either may be nil when the
// backend is disabled.
func NewHealthHandler(db *database.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  h.db.Status(ctx),
		Redis:     h.redis.Status(ctx),
	}

	if resp.Database == statusDisconnected || resp.Redis == statusDisconnected {
		logger.Warn("Backend unreachable", "database", resp.Database, "redis", resp.Redis)
		resp.Status = "degraded"
	}

	response.Success(w, http.StatusOK, resp)
}
