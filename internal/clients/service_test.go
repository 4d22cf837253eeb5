package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	clients []Client
	failTx  bool
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.failTx {
		return errors.New("tx failed")
	}
	return fn(ctx, m)
}

func (m *memoryRepo) Insert(ctx context.Context, c Client) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = fmt.Sprintf("cl-%d", len(m.clients)+1)
	c.CustomValues = map[string]string{}
	m.clients = append(m.clients, c)
	return c, nil
}

func (m *memoryRepo) find(companyID, id string) *Client {
	for i := range m.clients {
		if m.clients[i].ID == id && m.clients[i].CompanyID == companyID {
			return &m.clients[i]
		}
	}
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, c Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.find(c.CompanyID, c.ID)
	if existing == nil {
		return ErrClientNotFound
	}
	values := existing.CustomValues
	*existing = c
	existing.CustomValues = values
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id string) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.find(companyID, id)
	if c == nil {
		return Client{}, ErrClientNotFound
	}
	return *c, nil
}

func (m *memoryRepo) List(ctx context.Context, companyID, search string, limit, offset int) ([]Client, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []Client
	for _, c := range m.clients {
		if c.CompanyID != companyID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.FullName()), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, c)
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *memoryRepo) UpsertValues(ctx context.Context, clientID string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == clientID {
			for k, v := range values {
				m.clients[i].CustomValues[k] = v
			}
		}
	}
	return nil
}

func (m *memoryRepo) DeleteValues(ctx context.Context, clientID string, fieldIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == clientID {
			for _, id := range fieldIDs {
				delete(m.clients[i].CustomValues, id)
			}
		}
	}
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, companyID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var kept []Client
	var n int64
	for _, c := range m.clients {
		if c.CompanyID == companyID && drop[c.ID] {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.clients = kept
	return n, nil
}

type stubFields struct {
	fields []customfields.Field
	err    error
}

func (s stubFields) List(ctx context.Context, companyID string) ([]customfields.Field, error) {
	return s.fields, s.err
}

var carFields = []customfields.Field{
	{ID: "f-brand", Name: "Marca masina", Type: customfields.TypeText},
	{ID: "f-year", Name: "An fabricatie", Type: customfields.TypeNumber},
	{ID: "f-fuel", Name: "Combustibil", Type: customfields.TypeSelect, Options: []string{"Benzina", "Diesel"}},
}

func strPtr(s string) *string { return &s }

func TestCreateStoresCanonicalValues(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubFields{fields: carFields}, nil)

	c, err := svc.Create(context.Background(), "c-1", ClientInput{
		FirstName:    " Ion ",
		LastName:     "Popescu",
		Email:        strPtr("  "),
		Phone:        strPtr("0722 111 222"),
		CustomValues: map[string]string{"f-brand": "Dacia", "f-year": "2018", "f-fuel": "diesel"},
	})
	require.NoError(t, err)
	require.Equal(t, "Ion", c.FirstName)
	require.Nil(t, c.Email)
	require.Equal(t, "0722 111 222", *c.Phone)
	require.Equal(t, "Diesel", c.CustomValues["f-fuel"])
	require.Equal(t, "2018", c.CustomValues["f-year"])

	stored, err := svc.Get(context.Background(), "c-1", c.ID)
	require.NoError(t, err)
	require.Equal(t, "Dacia", stored.CustomValues["f-brand"])
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(&memoryRepo{}, stubFields{fields: carFields}, nil)

	_, err := svc.Create(context.Background(), "c-1", ClientInput{FirstName: "Ion"})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "last_name")

	_, err = svc.Create(context.Background(), "c-1", ClientInput{
		FirstName:    "Ion",
		LastName:     "Popescu",
		CustomValues: map[string]string{"f-year": "vechi", "f-missing": "x"},
	})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "custom_values.f-year")
	require.Contains(t, verr.Fields, "custom_values.f-missing")
}

func TestCreateRequiresRequiredValues(t *testing.T) {
	fields := []customfields.Field{{ID: "f-plate", Name: "Nr. inmatriculare", Type: customfields.TypeText, Required: true}}
	svc := NewService(&memoryRepo{}, stubFields{fields: fields}, nil)

	_, err := svc.Create(context.Background(), "c-1", ClientInput{FirstName: "Ion", LastName: "Popescu"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), "c-1", ClientInput{
		FirstName:    "Ion",
		LastName:     "Popescu",
		CustomValues: map[string]string{"f-plate": "B 10 ABC"},
	})
	require.NoError(t, err)
}

func TestUpdateClearsEmptyValues(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubFields{fields: carFields}, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, "c-1", ClientInput{
		FirstName:    "Ion",
		LastName:     "Popescu",
		CustomValues: map[string]string{"f-brand": "Dacia", "f-year": "2018"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "c-1", c.ID, ClientInput{
		FirstName:    "Ion",
		LastName:     "Ionescu",
		CustomValues: map[string]string{"f-brand": ""},
	})
	require.NoError(t, err)
	require.Equal(t, "Ionescu", updated.LastName)
	require.NotContains(t, updated.CustomValues, "f-brand")
	require.Equal(t, "2018", updated.CustomValues["f-year"])
}

func TestUpdateOtherTenantNotFound(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubFields{}, nil)
	c, err := svc.Create(context.Background(), "c-1", ClientInput{FirstName: "Ion", LastName: "Popescu"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "c-2", c.ID, ClientInput{FirstName: "X", LastName: "Y"})
	require.ErrorIs(t, err, ErrClientNotFound)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListPaginatesAndSearches(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubFields{fields: carFields}, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "c-1", ClientInput{FirstName: fmt.Sprintf("Ion%d", i), LastName: "Popescu"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "c-1", ClientInput{FirstName: "Maria", LastName: "Ionescu"})
	require.NoError(t, err)

	res, err := svc.List(ctx, ListRequest{CompanyID: "c-1", Pagination: paginationOf(1, 2)})
	require.NoError(t, err)
	require.Len(t, res.Clients, 2)
	require.Equal(t, 4, res.Total)
	require.Equal(t, 2, res.Pagination.TotalPages)
	require.Len(t, res.Fields, 3)

	res, err = svc.List(ctx, ListRequest{CompanyID: "c-1", Search: "maria"})
	require.NoError(t, err)
	require.Len(t, res.Clients, 1)

	res, err = svc.List(ctx, ListRequest{CompanyID: "c-9"})
	require.NoError(t, err)
	require.NotNil(t, res.Clients)
	require.Empty(t, res.Clients)
}

func TestListPropagatesFieldError(t *testing.T) {
	svc := NewService(&memoryRepo{}, stubFields{err: errors.New("db down")}, nil)
	_, err := svc.List(context.Background(), ListRequest{CompanyID: "c-1"})
	require.ErrorContains(t, err, "db down")
}

func TestDeleteValidatesIDs(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubFields{}, nil)
	ctx := context.Background()

	_, err := svc.Delete(ctx, "c-1", DeleteRequest{})
	require.ErrorIs(t, err, httpx.ErrValidation)

	a, _ := svc.Create(ctx, "c-1", ClientInput{FirstName: "Ion", LastName: "Popescu"})
	b, _ := svc.Create(ctx, "c-2", ClientInput{FirstName: "Ana", LastName: "Pop"})
	n, err := svc.Delete(ctx, "c-1", DeleteRequest{IDs: []string{a.ID, b.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Len(t, repo.clients, 1)
}

func TestExportWritesCustomColumns(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubFields{fields: carFields}, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "c-1", ClientInput{
		FirstName:    "Ion",
		LastName:     "Popescu",
		Email:        strPtr("ion@example.com"),
		CustomValues: map[string]string{"f-brand": "Dacia"},
	})
	require.NoError(t, err)

	body, err := svc.Export(ctx, "c-1", "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Marca masina", rows[0][6])
	require.Equal(t, "ion@example.com", rows[1][2])
	require.Equal(t, "Dacia", rows[1][6])
}

func paginationOf(page, perPage int) shared.Pagination {
	return shared.Pagination{Page: page, PerPage: perPage}
}
