package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// Repository persists clients.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Insert(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) error
	Get(ctx context.Context, companyID, id string) (Client, error)
	List(ctx context.Context, companyID, search string, limit, offset int) ([]Client, int, error)
	UpsertValues(ctx context.Context, clientID string, values map[string]string) error
	DeleteValues(ctx context.Context, clientID string, fieldIDs []string) error
	Delete(ctx context.Context, companyID string, ids []string) (int64, error)
}

type pool interface {
	db.DBTX
	db.TxBeginner
}

type repository struct {
	db   db.DBTX
	pool pool
}

// NewRepository builds a Repository over a pgx pool.
func NewRepository(p pool) Repository {
	return &repository{db: p, pool: p}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const clientColumns = `id::text, company_id::text, first_name, last_name, email, phone, notes, last_appointment, created_at`

func (r *repository) Insert(ctx context.Context, c Client) (Client, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO clients (company_id, first_name, last_name, email, phone, notes)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING `+clientColumns,
		c.CompanyID, c.FirstName, c.LastName, c.Email, c.Phone, c.Notes)
	created, err := scanClient(row)
	if err != nil {
		return Client{}, fmt.Errorf("insert client: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.db.Exec(ctx, `UPDATE clients
		SET first_name = $3, last_name = $4, email = $5, phone = $6, notes = $7
		WHERE id = $1::uuid AND company_id = $2::uuid`,
		c.ID, c.CompanyID, c.FirstName, c.LastName, c.Email, c.Phone, c.Notes)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, companyID, id string) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+`
		FROM clients WHERE id = $1::uuid AND company_id = $2::uuid`, id, companyID))
	if err != nil {
		return Client{}, err
	}
	values, err := r.values(ctx, []string{c.ID})
	if err != nil {
		return Client{}, err
	}
	c.CustomValues = values[c.ID]
	return c, nil
}

// List returns newest clients first. A zero limit returns every match.
func (r *repository) List(ctx context.Context, companyID, search string, limit, offset int) ([]Client, int, error) {
	conditions := []string{"company_id = $1::uuid"}
	args := []any{companyID}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(first_name || ' ' || last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d)", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM clients %s
		ORDER BY created_at DESC
		LIMIT NULLIF($%d, 0) OFFSET $%d`, clientColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var (
		clients []Client
		ids     []string
	)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return clients, total, nil
	}

	values, err := r.values(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range clients {
		clients[i].CustomValues = values[clients[i].ID]
	}
	return clients, total, nil
}

func (r *repository) values(ctx context.Context, clientIDs []string) (map[string]map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT client_id::text, field_id::text, value
		FROM client_custom_values WHERE client_id = ANY($1::text[]::uuid[])`, clientIDs)
	if err != nil {
		return nil, fmt.Errorf("load custom values: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]string, len(clientIDs))
	for rows.Next() {
		var clientID, fieldID, value string
		if err := rows.Scan(&clientID, &fieldID, &value); err != nil {
			return nil, err
		}
		if out[clientID] == nil {
			out[clientID] = make(map[string]string)
		}
		out[clientID][fieldID] = value
	}
	return out, rows.Err()
}

func (r *repository) UpsertValues(ctx context.Context, clientID string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make([]string, 0, len(values))
	texts := make([]string, 0, len(values))
	for fieldID, v := range values {
		fields = append(fields, fieldID)
		texts = append(texts, v)
	}
	_, err := r.db.Exec(ctx, `INSERT INTO client_custom_values (client_id, field_id, value)
		SELECT $1::uuid, v.field_id::uuid, v.value
		FROM unnest($2::text[], $3::text[]) AS v(field_id, value)
		ON CONFLICT (client_id, field_id) DO UPDATE SET value = EXCLUDED.value`,
		clientID, fields, texts)
	if err != nil {
		return fmt.Errorf("upsert custom values: %w", err)
	}
	return nil
}

func (r *repository) DeleteValues(ctx context.Context, clientID string, fieldIDs []string) error {
	if len(fieldIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM client_custom_values
		WHERE client_id = $1::uuid AND field_id = ANY($2::text[]::uuid[])`, clientID, fieldIDs)
	return err
}

func (r *repository) Delete(ctx context.Context, companyID string, ids []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients
		WHERE company_id = $1::uuid AND id = ANY($2::text[]::uuid[])`, companyID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete clients: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanClient(row pgx.Row) (Client, error) {
	var (
		c               Client
		lastAppointment pgtype.Timestamptz
		createdAt       pgtype.Timestamptz
	)
	err := row.Scan(&c.ID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Notes, &lastAppointment, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, err
	}
	if lastAppointment.Valid {
		t := lastAppointment.Time
		c.LastAppointment = &t
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	return c, nil
}
