package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	FindByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	CreateCompany(ctx context.Context, userID, name, email string) (string, error)
	CompanyForUser(ctx context.Context, userID string) (id, name string, err error)
}

type pool interface {
	db.DBTX
	db.TxBeginner
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   db.DBTX
	pool pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(p pool) *PGRepository {
	return &PGRepository{db: p, pool: p}
}

// WithTx runs fn with a repository bound to one transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool})
	})
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, `SELECT id::text, email, full_name, password_hash, created_at
		FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	return u, err
}

// CreateUser inserts a user. A duplicate email yields ErrEmailTaken.
func (r *PGRepository) CreateUser(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO users (email, full_name, password_hash)
		VALUES ($1, $2, $3) RETURNING id::text, created_at`,
		u.Email, u.FullName, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// CreateCompany inserts the company owned by userID.
func (r *PGRepository) CreateCompany(ctx context.Context, userID, name, email string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `INSERT INTO companies (user_id, name, email)
		VALUES ($1::uuid, $2, NULLIF($3, '')) RETURNING id::text`, userID, name, email).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert company: %w", err)
	}
	return id, nil
}

// CompanyForUser returns the company owned by userID.
func (r *PGRepository) CompanyForUser(ctx context.Context, userID string) (string, string, error) {
	var id, name string
	err := r.db.QueryRow(ctx, `SELECT id::text, name FROM companies
		WHERE user_id = $1::uuid ORDER BY created_at LIMIT 1`, userID).Scan(&id, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", shared.ErrNotFound
	}
	return id, name, err
}

var _ Repository = (*PGRepository)(nil)
