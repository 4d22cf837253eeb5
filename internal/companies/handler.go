package companies

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// Handler exposes the company profile.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   shared.AuditRecorder
}

// NewHandler constructs a Handler. audit may be nil.
func NewHandler(logger *slog.Logger, service *Service, audit shared.AuditRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, audit: audit}
}

// MountRoutes registers the profile endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/company", h.show)
	r.Put("/company", h.update)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.Get(r.Context(), id.CompanyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.Update(r.Context(), id.CompanyID, req)
	if err != nil {
		h.logger.Warn("update company", slog.String("company_id", id.CompanyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			CompanyID: id.CompanyID,
			ActorID:   id.UserID,
			Action:    "company.updated",
			Entity:    "company",
			EntityID:  id.CompanyID,
		}); err != nil {
			h.logger.Warn("audit company update", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "company": company})
}
