package companies

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ai-secretary/ai-secretary/internal/shared"
)

type memoryRepo struct {
	companies map[string]Company
}

func (m *memoryRepo) Get(ctx context.Context, id string) (Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return c, nil
}

func (m *memoryRepo) Update(ctx context.Context, c Company) (Company, error) {
	existing, ok := m.companies[c.ID]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	c.UserID = existing.UserID
	c.CreatedAt = existing.CreatedAt
	m.companies[c.ID] = c
	return c, nil
}

func newTestRouter(repo *memoryRepo, companyID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: "u-1", CompanyID: companyID})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(nil, NewService(repo), nil).MountRoutes(r)
	return r
}

func TestCompanyShowAndUpdate(t *testing.T) {
	repo := &memoryRepo{companies: map[string]Company{"c-1": {ID: "c-1", UserID: "u-1", Name: "Vechi"}}}
	router := newTestRouter(repo, "c-1")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/company", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"name":"Vechi"`)

	body := `{"name":" Service Auto SRL ","cui":"RO123","address":"  "}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/company", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	stored := repo.companies["c-1"]
	require.Equal(t, "Service Auto SRL", stored.Name)
	require.Equal(t, "RO123", *stored.CUI)
	require.Nil(t, stored.Address)
}

func TestCompanyUpdateValidation(t *testing.T) {
	repo := &memoryRepo{companies: map[string]Company{"c-1": {ID: "c-1"}}}
	router := newTestRouter(repo, "c-1")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/company", strings.NewReader(`{"name":"","email":"nope"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "name")
	require.Contains(t, rr.Body.String(), "email")
}

func TestCompanyMissing(t *testing.T) {
	router := newTestRouter(&memoryRepo{companies: map[string]Company{}}, "c-9")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/company", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
