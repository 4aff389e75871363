package feedconfig

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedwatch/internal/core"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	logger   *core.Logger
	detector *Detector
}

func NewHandler(logger *core.Logger, detector *Detector) *Handler {
	return &Handler{
		logger:   logger,
		detector: detector,
	}
}

// Check runs the validity check on demand
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	valid, err := h.detector.HasValidFeedConfig(r.Context())
	if err != nil {
		h.logger.Error("Feed configuration check failed", "error", err)
		core.HandleError(w, toAppError(err))
		return
	}

	h.writeJSON(w, map[string]any{"valid": valid})
}

// TrackerInfo returns the telemetry summary without sending it anywhere
func (h *Handler) TrackerInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.detector.TrackerInfo(r.Context())
	if err != nil {
		h.logger.Warn("Failed to build tracker info", "error", err)
		core.HandleError(w, toAppError(err))
		return
	}

	h.writeJSON(w, map[string]any{"tracker_info": info})
}

// ValidateFeed reports each validity criterion for a single feed
func (h *Handler) ValidateFeed(w http.ResponseWriter, r *http.Request) {
	feedID := chi.URLParam(r, "id")
	if feedID == "" {
		core.HandleError(w, core.NewValidationError("feed id is required", nil))
		return
	}

	result, err := h.detector.ValidateFeed(r.Context(), feedID)
	if err != nil {
		h.logger.Error("Feed validation failed", "feed_id", feedID, "error", err)
		core.HandleError(w, toAppError(err))
		return
	}

	h.writeJSON(w, map[string]any{"validation": result, "valid": result.Valid()})
}

// toAppError maps detection failures onto HTTP-facing error codes
func toAppError(err error) error {
	var fetchErr *FetchError
	switch {
	case errors.Is(err, ErrMissingCatalogID):
		return core.NewNotConnectedError("No catalog is connected", err)
	case errors.Is(err, ErrNoFeedConfigured):
		return core.NewNotFoundError("The catalog has no feed configured", err)
	case errors.As(err, &fetchErr):
		return core.NewUpstreamError("Graph API request failed", err)
	default:
		return err
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
