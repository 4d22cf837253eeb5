package messages

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// Handler exposes message generation and templates over JSON.
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

// MountRoutes registers the message endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/messages/generate", h.generateMessage)
	r.Get("/templates", h.listTemplates)
	r.Post("/templates", h.saveTemplate)
	r.Post("/templates/generate", h.generateTemplate)
	r.Delete("/templates/{id}", h.deleteTemplate)
}

func (h *Handler) generateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var p MessageParams
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	msg, err := h.service.GenerateMessage(r.Context(), id.CompanyID, p)
	if err != nil {
		h.respondGeneration(w, err, "Nu am putut genera mesajul. Vă rugăm să încercați din nou.")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": msg.Content, "record": msg})
}

func (h *Handler) generateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var p TemplateParams
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tpl, err := h.service.GenerateTemplate(r.Context(), id.CompanyID, p)
	if err != nil {
		h.respondGeneration(w, err, "Nu am putut genera șablonul. Vă rugăm să încercați din nou.")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "template": tpl.Content, "record": tpl})
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	templates, err := h.service.ListTemplates(r.Context(), id.CompanyID)
	if err != nil {
		h.logger.Error("list templates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SaveTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tpl, err := h.service.SaveTemplate(r.Context(), id.CompanyID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "template": tpl})
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteTemplate(r.Context(), id.CompanyID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondGeneration(w http.ResponseWriter, err error, detail string) {
	if errors.Is(err, ErrGeneration) {
		httpx.Problem(w, http.StatusBadGateway, "Generation Failed", detail)
		return
	}
	httpx.RespondError(w, err)
}
