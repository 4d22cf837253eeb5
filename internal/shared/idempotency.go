package shared

import (
	"context"
	"errors"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// ErrIdempotencyConflict is returned when the key was already claimed.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore records one-shot claims in idempotency_keys, unique on
// (module, key). Import drafts use it so a draft is confirmed at most once.
type IdempotencyStore struct {
	db  db.DBTX
	now func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(conn db.DBTX) *IdempotencyStore {
	return &IdempotencyStore{db: conn, now: time.Now}
}

// CheckAndInsert claims key within module. A second claim returns
// ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.db == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" || module == "" {
		return errors.New("idempotency key and module required")
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO idempotency_keys (module, key, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (module, key) DO NOTHING`, module, key, s.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Release drops a claim so the key can be claimed again.
func (s *IdempotencyStore) Release(ctx context.Context, key, module string) error {
	if s == nil || s.db == nil {
		return errors.New("idempotency store not initialised")
	}
	_, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE module = $1 AND key = $2`, module, key)
	return err
}

// Cleanup removes claims older than olderThan and reports how many went.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
