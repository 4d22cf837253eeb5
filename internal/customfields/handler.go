package customfields

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// Handler exposes the registry over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the custom field endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/custom-fields", h.list)
	r.Post("/custom-fields", h.create)
	r.Delete("/custom-fields/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	fields, err := h.service.List(r.Context(), id.CompanyID)
	if err != nil {
		h.logger.Error("list custom fields", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if fields == nil {
		fields = []Field{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateFieldRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	field, err := h.service.Create(r.Context(), id.CompanyID, req)
	if err != nil {
		h.logger.Warn("create custom field", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "field": field})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id.CompanyID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
