package csvimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

type fakeRegistry struct {
	fields  []customfields.Field
	fail    map[string]bool
	creates []customfields.CreateFieldRequest
	listed  int
}

func (r *fakeRegistry) List(ctx context.Context, companyID string) ([]customfields.Field, error) {
	r.listed++
	return append([]customfields.Field(nil), r.fields...), nil
}

func (r *fakeRegistry) Create(ctx context.Context, companyID string, req customfields.CreateFieldRequest) (customfields.Field, error) {
	r.creates = append(r.creates, req)
	if r.fail[req.Name] {
		return customfields.Field{}, errors.New("create failed")
	}
	f := customfields.Field{
		ID:           fmt.Sprintf("new-%d", len(r.creates)),
		CompanyID:    companyID,
		Name:         req.Name,
		Type:         req.Type,
		DisplayOrder: len(r.fields) + 1,
	}
	r.fields = append(r.fields, f)
	return f, nil
}

type fakeClaimer struct{ keys map[string]bool }

func (c *fakeClaimer) CheckAndInsert(ctx context.Context, key, module string) error {
	if c.keys[module+":"+key] {
		return shared.ErrIdempotencyConflict
	}
	c.keys[module+":"+key] = true
	return nil
}

func (c *fakeClaimer) Release(ctx context.Context, key, module string) error {
	delete(c.keys, module+":"+key)
	return nil
}

// failingDrafts fails every Save of a draft in state kind.
type failingDrafts struct {
	*DraftStore
	kind StateKind
}

func (d failingDrafts) Save(ctx context.Context, draft Draft) error {
	if draft.State != nil && draft.State.Kind() == d.kind {
		return errors.New("redis down")
	}
	return d.DraftStore.Save(ctx, draft)
}

// slowStore delays every client insert.
type slowStore struct {
	fakeStore
	delay time.Duration
}

func (s *slowStore) InsertClients(ctx context.Context, companyID string, rows []ClientRow) (map[string]string, error) {
	time.Sleep(s.delay)
	return s.fakeStore.InsertClients(ctx, companyID, rows)
}

type fakeEnqueuer struct {
	ids []string
	err error
}

func (e *fakeEnqueuer) EnqueueImport(ctx context.Context, draftID string) error {
	if e.err != nil {
		return e.err
	}
	e.ids = append(e.ids, draftID)
	return nil
}

type fakeAudit struct{ logs []shared.AuditLog }

func (a *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type fakeMetrics struct {
	outcomes []string
	created  int
}

func (m *fakeMetrics) ObserveImport(outcome string, imported, failed, dropped int) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) ObserveFieldsCreated(n int) { m.created += n }

type serviceFixture struct {
	svc      *Service
	registry *fakeRegistry
	store    *fakeStore
	drafts   *DraftStore
	mr       *miniredis.Miniredis
	audit    *fakeAudit
	metrics  *fakeMetrics
}

func newServiceFixture(t *testing.T, existing []customfields.Field, async bool) *serviceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fx := &serviceFixture{
		registry: &fakeRegistry{fields: existing, fail: map[string]bool{}},
		store:    &fakeStore{},
		drafts:   NewDraftStore(client, time.Hour),
		mr:       mr,
		audit:    &fakeAudit{},
		metrics:  &fakeMetrics{},
	}
	fx.svc = NewService(fx.registry, fx.drafts, fx.store, &fakeClaimer{keys: map[string]bool{}}, fx.audit, fx.metrics, nil, Options{BatchSize: 10, Async: async})
	return fx
}

var tenant = shared.Identity{UserID: "u-1", CompanyID: "c-1"}

func TestPreviewRejectsMissingNameBeforeWrites(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	_, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Email,Marca masina\nion@example.com,Dacia\n"))
	require.ErrorIs(t, err, ErrNameColumnMissing)
	require.Empty(t, fx.registry.creates)
	require.Zero(t, fx.registry.listed)
	require.Empty(t, fx.mr.Keys())
}

func TestPreviewRejectsEmptyFile(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	_, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("\n\n"))
	require.ErrorIs(t, err, ErrEmptyFile)
	require.Empty(t, fx.mr.Keys())
}

func TestPreviewCreatesMissingFields(t *testing.T) {
	existing := []customfields.Field{{ID: "f-1", Name: "Marca masina", Type: customfields.TypeText, DisplayOrder: 1}}
	fx := newServiceFixture(t, existing, false)
	fx.registry.fail["Culoare"] = true

	csv := "Nume,marca_masina,An fabricatie,Culoare\nIon Popescu,Dacia,2018,rosu\n"
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte(csv))
	require.NoError(t, err)

	require.Len(t, fx.registry.creates, 2)
	require.Equal(t, "An fabricatie", fx.registry.creates[0].Name)
	require.Equal(t, customfields.TypeText, fx.registry.creates[0].Type)
	require.False(t, fx.registry.creates[0].Required)
	require.Equal(t, 1, fx.metrics.created)

	state, ok := draft.State.(Mapping)
	require.True(t, ok)
	require.Len(t, state.Created, 1)
	require.Equal(t, []FieldError{{Header: "Culoare", Error: "create failed"}}, state.FieldErrors)
	require.Equal(t, "Nume", state.Mapping["name"])
	require.Equal(t, "marca_masina", state.Mapping["f-1"])
	require.Equal(t, "An fabricatie", state.Mapping[state.Created[0].ID])

	stored, err := fx.drafts.Load(context.Background(), draft.ID)
	require.NoError(t, err)
	require.Equal(t, KindMapping, stored.State.Kind())
}

func TestConfirmRunsInlineAndStoresResult(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume,Email\nIon Popescu,ion@example.com\nMaria,\n"))
	require.NoError(t, err)

	done, err := fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.NoError(t, err)
	state, ok := done.State.(Done)
	require.True(t, ok)
	require.Equal(t, 2, state.Result.Imported)
	require.Equal(t, []string{"success"}, fx.metrics.outcomes)
	require.Len(t, fx.audit.logs, 1)
	require.Equal(t, draft.ID, fx.audit.logs[0].EntityID)

	_, err = fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmClaimsDraftOnce(t *testing.T) {
	fx := newServiceFixture(t, nil, true)
	fx.svc.SetEnqueuer(&fakeEnqueuer{})
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)

	_, err = fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.NoError(t, err)

	// A second request that read the draft before the first confirmation landed.
	require.NoError(t, fx.drafts.Save(context.Background(), draft))
	_, err = fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestConfirmReleasesClaimWhenDraftSaveFails(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)

	fx.svc.drafts = failingDrafts{DraftStore: fx.drafts, kind: KindImporting}
	_, err = fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.ErrorContains(t, err, "redis down")

	fx.svc.drafts = fx.drafts
	done, err := fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.NoError(t, err)
	require.Equal(t, KindDone, done.State.Kind())
	require.Equal(t, 1, fx.store.calls)
}

func TestConfirmInlineOutlivesRequestDeadline(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	store := &slowStore{delay: 40 * time.Millisecond}
	fx.svc.importer = NewImporter(store, nil, 10)

	var csv strings.Builder
	csv.WriteString("Nume\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&csv, "Client %d\n", i)
	}
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte(csv.String()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	done, err := fx.svc.Confirm(ctx, tenant, draft.ID, nil)
	require.NoError(t, err)
	state, ok := done.State.(Done)
	require.True(t, ok)
	require.Equal(t, 25, state.Result.Imported)
	require.False(t, state.Result.Canceled)
	require.Equal(t, OutcomeSuccess, state.Result.Outcome())
	require.Equal(t, 3, store.calls)
}

func TestPlanWritesNothing(t *testing.T) {
	existing := []customfields.Field{{ID: "f-1", Name: "Marca masina", Type: customfields.TypeText, DisplayOrder: 1}}
	fx := newServiceFixture(t, existing, false)

	plan, err := fx.svc.Plan(context.Background(), tenant, "clienti.csv", []byte("Nume,marca_masina,Culoare\nIon,Dacia,rosu\n"))
	require.NoError(t, err)
	require.Empty(t, fx.registry.creates)
	require.Empty(t, fx.mr.Keys())
	require.Equal(t, []PlannedField{{Header: "Culoare", Index: 2}}, plan.Pending)
	require.Equal(t, "marca_masina", plan.Mapping["f-1"])
	require.False(t, plan.Report.Blocking())

	_, err = fx.svc.Plan(context.Background(), tenant, "clienti.csv", []byte("Email\nion@example.com\n"))
	require.ErrorIs(t, err, ErrNameColumnMissing)
}

func TestConfirmRejectsUnmappedName(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)

	_, err = fx.svc.Confirm(context.Background(), tenant, draft.ID, ColumnMapping{"name": Ignore})
	require.Error(t, err)
	require.Zero(t, fx.store.calls)

	stored, err := fx.drafts.Load(context.Background(), draft.ID)
	require.NoError(t, err)
	require.Equal(t, KindMapping, stored.State.Kind())
}

func TestConfirmEnqueuesWhenAsync(t *testing.T) {
	fx := newServiceFixture(t, nil, true)
	enq := &fakeEnqueuer{}
	fx.svc.SetEnqueuer(enq)

	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)

	queued, err := fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.NoError(t, err)
	require.Equal(t, KindImporting, queued.State.Kind())
	require.Equal(t, []string{draft.ID}, enq.ids)
	require.Zero(t, fx.store.calls)

	finished, err := fx.svc.Run(context.Background(), draft.ID)
	require.NoError(t, err)
	require.Equal(t, KindDone, finished.State.Kind())
	require.Equal(t, 1, fx.store.calls)

	_, err = fx.svc.Run(context.Background(), draft.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 1, fx.store.calls)
}

func TestConfirmFallsBackInlineWhenEnqueueFails(t *testing.T) {
	fx := newServiceFixture(t, nil, true)
	fx.svc.SetEnqueuer(&fakeEnqueuer{err: errors.New("redis down")})

	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)
	done, err := fx.svc.Confirm(context.Background(), tenant, draft.ID, nil)
	require.NoError(t, err)
	require.Equal(t, KindDone, done.State.Kind())
}

func TestDraftsAreTenantScoped(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)

	other := shared.Identity{UserID: "u-2", CompanyID: "c-2"}
	_, err = fx.svc.Get(context.Background(), other, draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
	require.ErrorIs(t, fx.svc.Discard(context.Background(), other, draft.ID), ErrDraftNotFound)

	require.NoError(t, fx.svc.Discard(context.Background(), tenant, draft.ID))
	_, err = fx.svc.Get(context.Background(), tenant, draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftStoreAppliesTTL(t *testing.T) {
	fx := newServiceFixture(t, nil, false)
	draft, err := fx.svc.Preview(context.Background(), tenant, "clienti.csv", []byte("Nume\nIon\n"))
	require.NoError(t, err)

	key := "import:draft:" + draft.ID
	require.Equal(t, time.Hour, fx.mr.TTL(key))
	fx.mr.FastForward(2 * time.Hour)
	_, err = fx.drafts.Load(context.Background(), draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
	require.False(t, strings.Contains(strings.Join(fx.mr.Keys(), ","), draft.ID))
}
