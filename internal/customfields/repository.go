package customfields

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// Repository persists custom field definitions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, companyID string) ([]Field, error)
	Insert(ctx context.Context, field Field) (Field, error)
	DeleteValues(ctx context.Context, companyID, fieldID string) error
	Delete(ctx context.Context, companyID, fieldID string) error
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

const fieldColumns = `id::text, company_id::text, field_name, field_type, field_options, is_required, display_order, created_at`

func (r *repository) List(ctx context.Context, companyID string) ([]Field, error) {
	rows, err := r.db.Query(ctx, `SELECT `+fieldColumns+`
		FROM client_custom_fields
		WHERE company_id = $1::uuid
		ORDER BY display_order ASC, created_at ASC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	defer rows.Close()

	var fields []Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Insert stores the field with display_order set to the tenant's current maximum plus one.
func (r *repository) Insert(ctx context.Context, field Field) (Field, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO client_custom_fields
			(company_id, field_name, field_type, field_options, is_required, display_order)
		VALUES ($1::uuid, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(display_order), 0) + 1 FROM client_custom_fields WHERE company_id = $1::uuid))
		RETURNING `+fieldColumns,
		field.CompanyID, field.Name, string(field.Type), field.Options, field.Required)
	created, err := scanField(row)
	if err != nil {
		return Field{}, fmt.Errorf("insert custom field: %w", err)
	}
	return created, nil
}

func (r *repository) DeleteValues(ctx context.Context, companyID, fieldID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM client_custom_values v
		USING client_custom_fields f
		WHERE v.field_id = f.id AND f.id = $1::uuid AND f.company_id = $2::uuid`, fieldID, companyID)
	return err
}

func (r *repository) Delete(ctx context.Context, companyID, fieldID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM client_custom_fields WHERE id = $1::uuid AND company_id = $2::uuid`, fieldID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFieldNotFound
	}
	return nil
}

func scanField(row pgx.Row) (Field, error) {
	var (
		f         Field
		fieldType string
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&f.ID, &f.CompanyID, &f.Name, &fieldType, &f.Options, &f.Required, &f.DisplayOrder, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Field{}, ErrFieldNotFound
		}
		return Field{}, err
	}
	f.Type = FieldType(fieldType)
	if createdAt.Valid {
		f.CreatedAt = createdAt.Time
	}
	return f, nil
}
