package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// Repository reads and updates company rows.
type Repository interface {
	Get(ctx context.Context, id string) (Company, error)
	Update(ctx context.Context, c Company) (Company, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const companyColumns = `id::text, user_id::text, name, address, cui, reg_number, email, created_at`

func (r *repository) Get(ctx context.Context, id string) (Company, error) {
	return scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1::uuid`, id))
}

func (r *repository) Update(ctx context.Context, c Company) (Company, error) {
	updated, err := scanCompany(r.db.QueryRow(ctx, `UPDATE companies
		SET name = $2, address = $3, cui = $4, reg_number = $5, email = $6
		WHERE id = $1::uuid
		RETURNING `+companyColumns,
		c.ID, c.Name, c.Address, c.CUI, c.RegNumber, c.Email))
	if err != nil && !errors.Is(err, ErrCompanyNotFound) {
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return updated, err
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Address, &c.CUI, &c.RegNumber, &c.Email, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return c, err
}
