package csvimport

import (
	"context"
	"fmt"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// Repository writes imported clients with one statement per batch.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// InsertClients inserts the rows and reads back each row's import_ref, so ids
// are matched to rows by token rather than by position.
func (r *Repository) InsertClients(ctx context.Context, companyID string, rows []ClientRow) (map[string]string, error) {
	n := len(rows)
	first, last := make([]string, n), make([]string, n)
	email, phone, notes := make([]*string, n), make([]*string, n), make([]*string, n)
	refs := make([]string, n)
	for i, row := range rows {
		first[i], last[i] = row.FirstName, row.LastName
		email[i], phone[i], notes[i] = row.Email, row.Phone, row.Notes
		refs[i] = row.Ref
	}

	result, err := r.db.Query(ctx, `INSERT INTO clients (company_id, first_name, last_name, email, phone, notes, import_ref)
		SELECT $1::uuid, r.first_name, r.last_name, r.email, r.phone, r.notes, r.import_ref::uuid
		FROM unnest($2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[])
			AS r(first_name, last_name, email, phone, notes, import_ref)
		RETURNING id::text, import_ref::text`,
		companyID, first, last, email, phone, notes, refs)
	if err != nil {
		return nil, fmt.Errorf("insert clients: %w", err)
	}
	defer result.Close()

	ids := make(map[string]string, n)
	for result.Next() {
		var id, ref string
		if err := result.Scan(&id, &ref); err != nil {
			return nil, fmt.Errorf("insert clients: scan: %w", err)
		}
		ids[ref] = id
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("insert clients: %w", err)
	}
	return ids, nil
}

// InsertValues upserts custom values, one row per (client, field).
func (r *Repository) InsertValues(ctx context.Context, values []CustomValue) error {
	n := len(values)
	clients, fields, texts := make([]string, n), make([]string, n), make([]string, n)
	for i, v := range values {
		clients[i], fields[i], texts[i] = v.ClientID, v.FieldID, v.Value
	}
	_, err := r.db.Exec(ctx, `INSERT INTO client_custom_values (client_id, field_id, value)
		SELECT v.client_id::uuid, v.field_id::uuid, v.value
		FROM unnest($1::text[], $2::text[], $3::text[]) AS v(client_id, field_id, value)
		ON CONFLICT (client_id, field_id) DO UPDATE SET value = EXCLUDED.value`,
		clients, fields, texts)
	if err != nil {
		return fmt.Errorf("insert custom values: %w", err)
	}
	return nil
}

var _ Store = (*Repository)(nil)
