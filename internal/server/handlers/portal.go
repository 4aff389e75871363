package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"feedwatch/internal/core"
)

// Pinger is satisfied by *core.Database
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PortalHandler serves the service index and health endpoints
type PortalHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       Pinger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(logger *core.Logger, registry *core.Registry, db Pinger) *PortalHandler {
	return &PortalHandler{
		logger:   logger,
		registry: registry,
		db:       db,
	}
}

// DashboardHandler lists the features and their state
func (h *PortalHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"service":  "feedwatch",
		"features": h.registry.GetFeatureStatus(),
	}); err != nil {
		h.logger.Error("Failed to encode dashboard response", "error", err)
	}
}

// HealthCheckHandler reports ok when the database answers
func (h *PortalHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)
		core.WriteErrorResponse(w, http.StatusServiceUnavailable,
			core.NewDatabaseError("Database unavailable", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "feedwatch",
		"version": "1.0.0",
	}); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
