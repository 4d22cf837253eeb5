package customfields

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// Service implements the custom field registry.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validate: httpx.NewValidator(), logger: logger}
}

// List returns the company's fields in display order.
func (s *Service) List(ctx context.Context, companyID string) ([]Field, error) {
	return s.repo.List(ctx, companyID)
}

// Create validates and stores a new field definition.
func (s *Service) Create(ctx context.Context, companyID string, req CreateFieldRequest) (Field, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := httpx.ValidateStruct(s.validate, req); err != nil {
		return Field{}, err
	}
	options := cleanOptions(req.Options)
	if req.Type == TypeSelect && len(options) == 0 {
		return Field{}, httpx.NewValidationError("fieldOptions", "select field type requires at least one option")
	}
	if req.Type != TypeSelect {
		options = nil
	}
	created, err := s.repo.Insert(ctx, Field{
		CompanyID: companyID,
		Name:      req.Name,
		Type:      req.Type,
		Options:   options,
		Required:  req.Required,
	})
	if err != nil {
		return Field{}, fmt.Errorf("create custom field %q: %w", req.Name, err)
	}
	s.logger.Info("custom field created", slog.String("company_id", companyID), slog.String("field_id", created.ID), slog.String("field_name", created.Name))
	return created, nil
}

// Delete removes the field and all of its values.
func (s *Service) Delete(ctx context.Context, companyID, fieldID string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteValues(ctx, companyID, fieldID); err != nil {
			return fmt.Errorf("delete custom values: %w", err)
		}
		return repo.Delete(ctx, companyID, fieldID)
	})
}
