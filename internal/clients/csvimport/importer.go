package csvimport

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultBatchSize is the number of rows per client insert.
const DefaultBatchSize = 10

// CustomValue is one custom field value for an inserted client.
type CustomValue struct {
	ClientID string
	FieldID  string
	Value    string
}

// Store persists imported clients. InsertClients returns the new client id
// for every row it stored, keyed by ClientRow.Ref.
type Store interface {
	InsertClients(ctx context.Context, companyID string, rows []ClientRow) (map[string]string, error)
	InsertValues(ctx context.Context, values []CustomValue) error
}

// Importer writes prepared rows batch by batch.
type Importer struct {
	store     Store
	logger    *slog.Logger
	batchSize int
	newRef    func() string
}

// NewImporter constructs an Importer. A batchSize below one uses DefaultBatchSize.
func NewImporter(store Store, logger *slog.Logger, batchSize int) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Importer{store: store, logger: logger, batchSize: batchSize, newRef: uuid.NewString}
}

// Run imports every row of t using m. Batches run sequentially; a failed
// batch counts all its rows as failed and the run moves on. Nothing is rolled
// back. When ctx is done between batches the partial result is returned
// together with ctx.Err().
func (im *Importer) Run(ctx context.Context, companyID string, t Table, m ColumnMapping) (Result, error) {
	batches, dropped := PrepareBatches(t, m, im.batchSize, im.newRef)
	res := Result{Dropped: dropped}
	log := im.logger.With(slog.String("company_id", companyID))

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			res.Canceled = true
			for _, rest := range batches[i:] {
				res.Skipped += len(rest.Rows)
			}
			return res, err
		}
		res.Batches++

		ids, err := im.store.InsertClients(ctx, companyID, batch.Rows)
		if err != nil {
			log.Error("insert client batch", slog.Int("batch", batch.Number), slog.Int("rows", len(batch.Rows)), slog.Any("error", err))
			res.Failed += len(batch.Rows)
			res.BatchErrors = append(res.BatchErrors, BatchError{Batch: batch.Number, Rows: len(batch.Rows), Error: err.Error()})
			continue
		}

		var values []CustomValue
		for _, row := range batch.Rows {
			clientID, ok := ids[row.Ref]
			if !ok {
				res.Failed++
				continue
			}
			res.Imported++
			for fieldID, v := range row.Values {
				values = append(values, CustomValue{ClientID: clientID, FieldID: fieldID, Value: v})
			}
		}
		if len(values) == 0 {
			continue
		}
		if err := im.store.InsertValues(ctx, values); err != nil {
			log.Warn("insert custom values", slog.Int("batch", batch.Number), slog.Int("values", len(values)), slog.Any("error", err))
			res.ValueErrors += len(values)
		}
	}
	return res, nil
}
