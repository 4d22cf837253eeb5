package messages

import (
	"context"
	"fmt"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// Repository persists messages and templates.
type Repository interface {
	CompanyName(ctx context.Context, companyID string) (string, error)
	InsertMessage(ctx context.Context, m Message) (Message, error)
	ListTemplates(ctx context.Context, companyID string) ([]Template, error)
	InsertTemplate(ctx context.Context, t Template) (Template, error)
	DeleteTemplate(ctx context.Context, companyID, id string) error
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a Repository over a pgx connection.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) CompanyName(ctx context.Context, companyID string) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1::uuid`, companyID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("load company name: %w", err)
	}
	return name, nil
}

func (r *repository) InsertMessage(ctx context.Context, m Message) (Message, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO messages (company_id, client_id, content, type, status, is_ai_generated)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
		RETURNING id::text, created_at`,
		m.CompanyID, m.ClientID, m.Content, m.Type, m.Status, m.IsAIGenerated).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (r *repository) ListTemplates(ctx context.Context, companyID string) ([]Template, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, company_id::text, name, content, type, industry, purpose, created_at
		FROM message_templates WHERE company_id = $1::uuid ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.Content, &t.Type, &t.Industry, &t.Purpose, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) InsertTemplate(ctx context.Context, t Template) (Template, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO message_templates (company_id, name, content, type, industry, purpose)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at`,
		t.CompanyID, t.Name, t.Content, t.Type, t.Industry, t.Purpose).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Template{}, fmt.Errorf("insert template: %w", err)
	}
	return t, nil
}

func (r *repository) DeleteTemplate(ctx context.Context, companyID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM message_templates WHERE id = $1::uuid AND company_id = $2::uuid`, id, companyID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
