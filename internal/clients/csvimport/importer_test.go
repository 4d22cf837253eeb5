package csvimport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls      int
	failBatch  map[int]bool
	omitLast   bool
	failValues bool
	batches    [][]ClientRow
	values     []CustomValue
	onInsert   func(call int)
}

func (s *fakeStore) InsertClients(ctx context.Context, companyID string, rows []ClientRow) (map[string]string, error) {
	s.calls++
	if s.onInsert != nil {
		s.onInsert(s.calls)
	}
	s.batches = append(s.batches, rows)
	if s.failBatch[s.calls] {
		return nil, errors.New("insert failed")
	}
	ids := make(map[string]string, len(rows))
	for i, row := range rows {
		if s.omitLast && i == len(rows)-1 {
			continue
		}
		ids[row.Ref] = fmt.Sprintf("client-%d-%d", s.calls, i)
	}
	return ids, nil
}

func (s *fakeStore) InsertValues(ctx context.Context, values []CustomValue) error {
	if s.failValues {
		return errors.New("values failed")
	}
	s.values = append(s.values, values...)
	return nil
}

func namedRows(n int) Table {
	t := Table{Headers: []string{"Nume", "Marca"}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, []string{fmt.Sprintf("Client %d", i), "Dacia"})
	}
	return t
}

var carMapping = ColumnMapping{"name": "Nume", "email": Ignore, "phone": Ignore, "notes": Ignore, "f-1": "Marca"}

func TestImporterBatchFailureIsPartial(t *testing.T) {
	store := &fakeStore{failBatch: map[int]bool{2: true}}
	res, err := NewImporter(store, nil, 10).Run(context.Background(), "c-1", namedRows(25), carMapping)
	require.NoError(t, err)

	require.Equal(t, 3, store.calls)
	require.Len(t, store.batches[0], 10)
	require.Len(t, store.batches[1], 10)
	require.Len(t, store.batches[2], 5)
	require.Equal(t, 15, res.Imported)
	require.Equal(t, 10, res.Failed)
	require.Equal(t, OutcomePartial, res.Outcome())
	require.Equal(t, "Import finalizat cu erori. 15 clienți importați, 10 erori.", res.Message())
	require.Len(t, res.BatchErrors, 1)
	require.Equal(t, 2, res.BatchErrors[0].Batch)
	require.Len(t, store.values, 15)
}

func TestImporterSuccess(t *testing.T) {
	store := &fakeStore{}
	res, err := NewImporter(store, nil, 0).Run(context.Background(), "c-1", namedRows(3), carMapping)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome())
	require.Equal(t, "3 clienți importați cu succes!", res.Message())
	for _, v := range store.values {
		require.Equal(t, "f-1", v.FieldID)
		require.Equal(t, "Dacia", v.Value)
	}
}

func TestImporterCountsRowsMissingFromInsertResult(t *testing.T) {
	store := &fakeStore{omitLast: true}
	res, err := NewImporter(store, nil, 10).Run(context.Background(), "c-1", namedRows(4), carMapping)
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)
	require.Equal(t, 1, res.Failed)
	require.Len(t, store.values, 3)
}

func TestImporterValueFailureKeepsClients(t *testing.T) {
	store := &fakeStore{failValues: true}
	res, err := NewImporter(store, nil, 10).Run(context.Background(), "c-1", namedRows(2), carMapping)
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 2, res.ValueErrors)
	require.Equal(t, OutcomeSuccess, res.Outcome())
}

func TestImporterWhitespaceNameIsNotCounted(t *testing.T) {
	table := Table{Headers: []string{"Nume", "Email"}, Rows: [][]string{{"   ", ""}}}
	store := &fakeStore{}
	res, err := NewImporter(store, nil, 10).Run(context.Background(), "c-1", table, ColumnMapping{"name": "Nume", "email": "Email"})
	require.NoError(t, err)
	require.Zero(t, store.calls)
	require.Equal(t, Result{Dropped: 1}, res)
	require.Equal(t, OutcomeFailed, res.Outcome())
	require.Equal(t, "Nu s-a putut importa niciun client. Verifică fișierul CSV.", res.Message())
}

func TestImporterStopsBetweenBatchesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeStore{onInsert: func(call int) {
		if call == 1 {
			cancel()
		}
	}}
	res, err := NewImporter(store, nil, 10).Run(ctx, "c-1", namedRows(25), carMapping)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, res.Canceled)
	require.Equal(t, 1, store.calls)
	require.Equal(t, 10, res.Imported)
	require.Equal(t, 15, res.Skipped)
	require.Equal(t, OutcomePartial, res.Outcome())
	require.Equal(t, "Import întrerupt. 10 clienți importați, 0 erori, 15 neprocesați.", res.Message())
}

func TestCanceledRunWithoutImportsFails(t *testing.T) {
	res := Result{Canceled: true, Skipped: 5}
	require.Equal(t, OutcomeFailed, res.Outcome())
}

func TestImporterRunsOnlyAllFailures(t *testing.T) {
	store := &fakeStore{failBatch: map[int]bool{1: true}}
	res, err := NewImporter(store, nil, 10).Run(context.Background(), "c-1", namedRows(5), carMapping)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, res.Outcome())
	require.Equal(t, 5, res.Failed)
}
