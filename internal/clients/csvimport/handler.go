package csvimport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
	"github.com/ai-secretary/ai-secretary/web"
)

const previewRows = 5

// Handler exposes the import wizard over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	fields    FieldRegistry
	maxUpload int64
}

// NewHandler constructs a Handler. maxUpload caps the multipart body size.
func NewHandler(logger *slog.Logger, service *Service, fields FieldRegistry, maxUpload int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &Handler{logger: logger, service: service, fields: fields, maxUpload: maxUpload}
}

// MountRoutes registers the import endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/clients/import", func(r chi.Router) {
		r.Post("/", h.upload)
		r.Get("/template.csv", h.templateCSV)
		r.Get("/template.xlsx", h.templateXLSX)
		r.Get("/{draftID}", h.show)
		r.Post("/{draftID}/confirm", h.confirm)
		r.Delete("/{draftID}", h.discard)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "Fișierul este prea mare sau nu a putut fi citit.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "Te rugăm să selectezi un fișier CSV.")
		return
	}
	defer file.Close()
	if !acceptedUpload(header.Filename) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "Te rugăm să selectezi un fișier CSV.")
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "Eroare la citirea fișierului.")
		return
	}

	draft, err := h.service.Preview(r.Context(), id, header.Filename, content)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newDraftView(draft))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	draft, err := h.service.Get(r.Context(), id, chi.URLParam(r, "draftID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newDraftView(draft))
}

type confirmRequest struct {
	Mapping ColumnMapping `json:"mapping"`
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, fmt.Errorf("%w: malformed json: %v", httpx.ErrValidation, err))
		return
	}
	draft, err := h.service.Confirm(r.Context(), id, chi.URLParam(r, "draftID"), req.Mapping)
	if err != nil {
		h.respondError(w, err)
		return
	}
	status := http.StatusOK
	if draft.State.Kind() == KindImporting {
		status = http.StatusAccepted
	}
	httpx.JSON(w, status, newDraftView(draft))
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Discard(r.Context(), id, chi.URLParam(r, "draftID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) templateCSV(w http.ResponseWriter, r *http.Request) {
	body, err := TemplateCSV()
	if err != nil {
		h.logger.Error("read csv template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Attachment(w, "text/csv; charset=utf-8", web.ImportTemplateName, body)
}

func (h *Handler) templateXLSX(w http.ResponseWriter, r *http.Request) {
	id, err := shared.RequireIdentity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	fields, err := h.fields.List(r.Context(), id.CompanyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	body, err := TemplateXLSX(fields)
	if err != nil {
		h.logger.Error("build xlsx template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "clienti_template.xlsx", body)
}

func acceptedUpload(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".xlsx":
		return true
	}
	return false
}

// respondError renders pipeline errors with the messages shown to users.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyFile):
		httpx.Problem(w, http.StatusBadRequest, "Empty File", "Fișierul CSV este gol.")
	case errors.Is(err, ErrNoColumns):
		httpx.Problem(w, http.StatusBadRequest, "No Columns", "Nu s-au putut identifica coloanele în fișierul CSV.")
	case errors.Is(err, ErrNameColumnMissing):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Name Column Missing", "Nu s-a putut identifica coloana pentru numele clientului.")
	case errors.Is(err, ErrAlreadyConfirmed):
		httpx.Problem(w, http.StatusConflict, "Already Confirmed", "Importul a fost deja pornit.")
	case errors.Is(err, ErrDraftNotFound):
		httpx.Problem(w, http.StatusNotFound, "Draft Not Found", "Importul nu mai este disponibil. Încarcă fișierul din nou.")
	default:
		var verr *httpx.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, httpx.ErrUnprocessable) {
			h.logger.Error("import request", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

type draftView struct {
	DraftID        string               `json:"draft_id"`
	Kind           StateKind            `json:"kind"`
	Filename       string               `json:"filename,omitempty"`
	Headers        []string             `json:"headers,omitempty"`
	Preview        [][]string           `json:"preview,omitempty"`
	TotalRows      int                  `json:"total_rows,omitempty"`
	Standard       *StandardColumns     `json:"standard,omitempty"`
	Fields         []customfields.Field `json:"fields,omitempty"`
	CreatedFields  []customfields.Field `json:"created_fields,omitempty"`
	FieldErrors    []FieldError         `json:"field_errors,omitempty"`
	Mapping        ColumnMapping        `json:"mapping,omitempty"`
	Report         *MappingReport       `json:"report,omitempty"`
	Result         *Result              `json:"result,omitempty"`
	Outcome        Outcome              `json:"outcome,omitempty"`
	Message        string               `json:"message,omitempty"`
	RefreshClients bool                 `json:"refresh_clients,omitempty"`
}

func newDraftView(d Draft) draftView {
	v := draftView{DraftID: d.ID}
	if d.State == nil {
		v.Kind = KindIdle
		return v
	}
	v.Kind = d.State.Kind()
	switch s := d.State.(type) {
	case Idle:
	case Parsed:
		v.Filename = s.Filename
		v.fillTable(s.Table)
	case Mapping:
		v.Filename = s.Filename
		v.fillTable(s.Table)
		v.Standard = &s.Standard
		v.Fields = s.Fields
		v.CreatedFields = s.Created
		v.FieldErrors = s.FieldErrors
		v.Mapping = s.Mapping
		v.Report = &s.Report
		if len(s.Created) > 0 {
			v.Message = fmt.Sprintf("S-au creat %d câmpuri personalizate noi.", len(s.Created))
		}
	case Importing:
		v.Filename = s.Filename
		v.TotalRows = len(s.Table.Rows)
		v.Mapping = s.Mapping
		v.Message = fmt.Sprintf("Se importă %d clienți...", len(s.Table.Rows))
	case Done:
		v.Filename = s.Filename
		v.Result = &s.Result
		v.Outcome = s.Result.Outcome()
		v.Message = s.Result.Message()
		v.RefreshClients = v.Outcome == OutcomeSuccess
	}
	return v
}

func (v *draftView) fillTable(t Table) {
	v.Headers = t.Headers
	v.Preview = t.Preview(previewRows)
	v.TotalRows = len(t.Rows)
}
