package clients

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes client management over JSON.
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, perPage := shared.PageFromQuery(r.URL.Query())
	result, err := h.service.List(r.Context(), ListRequest{
		CompanyID:  id.CompanyID,
		Search:     r.URL.Query().Get("search"),
		Pagination: shared.Pagination{Page: page, PerPage: perPage},
	})
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.service.Get(r.Context(), id.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.service.Create(r.Context(), id.CompanyID, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, id, "clients.created", client.ID, nil)
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "client": client})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.service.Update(r.Context(), id.CompanyID, chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, id, "clients.updated", client.ID, nil)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "client": client})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req DeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	n, err := h.service.Delete(r.Context(), id.CompanyID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	for _, clientID := range req.IDs {
		h.record(r, id, "clients.deleted", clientID, nil)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "deleted": n})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	body, err := h.service.Export(r.Context(), id.CompanyID, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("export clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := "clienti-" + time.Now().Format("20060102") + ".xlsx"
	httpx.Attachment(w, xlsxContentType, filename, body)
}

func (h *Handler) record(r *http.Request, id shared.Identity, action, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		CompanyID: id.CompanyID,
		ActorID:   id.UserID,
		Action:    action,
		Entity:    "client",
		EntityID:  entityID,
		Meta:      meta,
	})
	if err != nil {
		h.logger.Warn("audit client change", slog.String("action", action), slog.Any("error", err))
	}
}
