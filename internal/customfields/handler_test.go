package customfields

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

func newTestRouter(repo *memoryRepo) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: "u-1", CompanyID: "c-1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(nil, NewService(repo, nil)).MountRoutes(r)
	return r
}

func TestHandlerCreateAndList(t *testing.T) {
	repo := &memoryRepo{}
	router := newTestRouter(repo)

	body := `{"fieldName":"Culoare","fieldType":"select","fieldOptions":"rosu, albastru","isRequired":true}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/custom-fields", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Field Field `json:"field"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, []string{"rosu", "albastru"}, created.Field.Options)
	require.True(t, created.Field.Required)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/custom-fields", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"field_name":"Culoare"`)
}

func TestHandlerCreateSelectWithoutOptions(t *testing.T) {
	router := newTestRouter(&memoryRepo{})
	rr := httptest.NewRecorder()
	body := `{"fieldName":"Culoare","fieldType":"select"}`
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/custom-fields", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "fieldOptions")
}

func TestHandlerRequiresIdentity(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, NewService(&memoryRepo{}, nil)).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/custom-fields", nil).WithContext(context.Background()))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandlerDeleteMissing(t *testing.T) {
	router := newTestRouter(&memoryRepo{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/custom-fields/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
