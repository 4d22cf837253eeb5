package shared

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type claimDB struct {
	claimed map[string]time.Time
	sql     []string
	err     error
}

func (d *claimDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.sql = append(d.sql, sql)
	if d.err != nil {
		return pgconn.CommandTag{}, d.err
	}
	if strings.Contains(sql, "INSERT") {
		k := args[0].(string) + "/" + args[1].(string)
		if _, ok := d.claimed[k]; ok {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		d.claimed[k] = args[2].(time.Time)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	if strings.Contains(sql, "WHERE module") {
		k := args[0].(string) + "/" + args[1].(string)
		if _, ok := d.claimed[k]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(d.claimed, k)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	cutoff := args[0].(time.Time)
	var n int
	for k, at := range d.claimed {
		if at.Before(cutoff) {
			delete(d.claimed, k)
			n++
		}
	}
	return pgconn.NewCommandTag("DELETE " + strconv.Itoa(n)), nil
}

func (d *claimDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (d *claimDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestIdempotencyClaimOnce(t *testing.T) {
	conn := &claimDB{claimed: map[string]time.Time{}}
	store := NewIdempotencyStore(conn)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "d-1", "clients.import"))
	require.ErrorIs(t, store.CheckAndInsert(ctx, "d-1", "clients.import"), ErrIdempotencyConflict)
	require.NoError(t, store.CheckAndInsert(ctx, "d-1", "other"))
}

func TestIdempotencyReleaseAllowsReclaim(t *testing.T) {
	store := NewIdempotencyStore(&claimDB{claimed: map[string]time.Time{}})
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "d-1", "clients.import"))
	require.NoError(t, store.Release(ctx, "d-1", "clients.import"))
	require.NoError(t, store.CheckAndInsert(ctx, "d-1", "clients.import"))
}

func TestIdempotencyRejectsEmptyKey(t *testing.T) {
	store := NewIdempotencyStore(&claimDB{claimed: map[string]time.Time{}})
	require.Error(t, store.CheckAndInsert(context.Background(), "", "clients.import"))
}

func TestIdempotencyCleanupReportsPruned(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	conn := &claimDB{claimed: map[string]time.Time{
		"m/old":   now.Add(-10 * 24 * time.Hour),
		"m/fresh": now.Add(-time.Hour),
	}}
	store := NewIdempotencyStore(conn)
	store.now = func() time.Time { return now }

	pruned, err := store.Cleanup(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)
	require.Contains(t, conn.claimed, "m/fresh")
}

func TestIdempotencyNilStore(t *testing.T) {
	var store *IdempotencyStore
	pruned, err := store.Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Zero(t, pruned)
	require.Error(t, store.CheckAndInsert(context.Background(), "k", "m"))
	require.Error(t, store.Release(context.Background(), "k", "m"))
}
