package feedstatus

import (
	"encoding/json"
	"net/http"

	"feedwatch/internal/auth"
	"feedwatch/internal/core"
	views "feedwatch/views/feedstatus"
)

type Handler struct {
	logger  *core.Logger
	service *Service
}

func NewHandler(logger *core.Logger, service *Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Page renders the feed status page
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("Failed to load feed status", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := views.Page(auth.UserFromContext(r.Context()), status)
	if err := component.Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render feed status page", "error", err)
	}
}

// ProgressBar returns the progress bar fragment for HTMX polling
func (h *Handler) ProgressBar(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("Failed to load feed status", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ProgressBar(status).Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render progress bar", "error", err)
	}
}

// Progress returns the job state and progress as JSON
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProgressReport(r.Context())
	if err != nil {
		h.logger.Error("Failed to read feed generation progress", "error", err)
		core.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("Failed to encode progress response", "error", err)
	}
}
