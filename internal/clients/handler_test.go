package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ai-secretary/ai-secretary/internal/shared"
)

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestRouter(repo *memoryRepo, audit shared.AuditRecorder) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: "u-1", CompanyID: "c-1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(nil, NewService(repo, stubFields{fields: carFields}, nil), audit).MountRoutes(r)
	return r
}

func TestHandlerCreateListDelete(t *testing.T) {
	repo := &memoryRepo{}
	audit := &recordingAudit{}
	router := newTestRouter(repo, audit)

	body := `{"first_name":"Ion","last_name":"Popescu","email":"ion@example.com","custom_values":{"f-brand":"Dacia"}}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Client Client `json:"client"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "Dacia", created.Client.CustomValues["f-brand"])

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients?search=ion", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list ListResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Fields, 3)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients/delete", strings.NewReader(`{"ids":["`+created.Client.ID+`"]}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"deleted":1`)

	require.Len(t, audit.logs, 2)
	require.Equal(t, "clients.created", audit.logs[0].Action)
	require.Equal(t, "clients.deleted", audit.logs[1].Action)
	require.Equal(t, "c-1", audit.logs[1].CompanyID)
}

func TestHandlerCreateValidation(t *testing.T) {
	router := newTestRouter(&memoryRepo{}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"first_name":"Ion","email":"nope"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "last_name")
	require.Contains(t, rr.Body.String(), "email")
}

func TestHandlerGetMissing(t *testing.T) {
	router := newTestRouter(&memoryRepo{}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients/cl-404", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExport(t *testing.T) {
	repo := &memoryRepo{clients: []Client{{ID: "cl-1", CompanyID: "c-1", FirstName: "Ion", LastName: "Popescu"}}}
	router := newTestRouter(repo, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "clienti-")
	require.NotEmpty(t, rr.Body.Bytes())
}

func TestHandlerRequiresIdentity(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, NewService(&memoryRepo{}, stubFields{}, nil), nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
