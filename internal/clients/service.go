package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// FieldSource lists the custom field definitions of a tenant.
type FieldSource interface {
	List(ctx context.Context, companyID string) ([]customfields.Field, error)
}

// Service implements manual client management.
type Service struct {
	repo     Repository
	fields   FieldSource
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository, fields FieldSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, fields: fields, logger: logger, validate: httpx.NewValidator()}
}

// Create stores a client and its custom values.
func (s *Service) Create(ctx context.Context, companyID string, in ClientInput) (Client, error) {
	in = normalizeInput(in)
	if err := httpx.ValidateStruct(s.validate, in); err != nil {
		return Client{}, err
	}
	fields, err := s.fields.List(ctx, companyID)
	if err != nil {
		return Client{}, fmt.Errorf("load custom fields: %w", err)
	}
	set, _, err := resolveValues(fields, in.CustomValues)
	if err != nil {
		return Client{}, err
	}

	var created Client
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		created, err = repo.Insert(ctx, Client{
			CompanyID: companyID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			Notes:     in.Notes,
		})
		if err != nil {
			return err
		}
		return repo.UpsertValues(ctx, created.ID, set)
	})
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	created.CustomValues = set
	return created, nil
}

// Update replaces a client's standard fields. Custom values present in the
// input are written; an empty value clears the stored one.
func (s *Service) Update(ctx context.Context, companyID, id string, in ClientInput) (Client, error) {
	in = normalizeInput(in)
	if err := httpx.ValidateStruct(s.validate, in); err != nil {
		return Client{}, err
	}
	fields, err := s.fields.List(ctx, companyID)
	if err != nil {
		return Client{}, fmt.Errorf("load custom fields: %w", err)
	}
	set, clear, err := resolveValues(fields, in.CustomValues)
	if err != nil {
		return Client{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, Client{
			ID:        id,
			CompanyID: companyID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			Notes:     in.Notes,
		}); err != nil {
			return err
		}
		if err := repo.DeleteValues(ctx, id, clear); err != nil {
			return err
		}
		return repo.UpsertValues(ctx, id, set)
	})
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return Client{}, err
		}
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, companyID, id)
}

// Get returns one client of the tenant.
func (s *Service) Get(ctx context.Context, companyID, id string) (Client, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns a page of clients together with the tenant's field definitions.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResult, error) {
	page := shared.NewPagination(req.Pagination.Page, req.Pagination.PerPage, 0)

	var (
		fields  []customfields.Field
		clients []Client
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fields, err = s.fields.List(gctx, req.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		clients, total, err = s.repo.List(gctx, req.CompanyID, req.Search, page.PerPage, page.Offset())
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, fmt.Errorf("list clients: %w", err)
	}
	if clients == nil {
		clients = []Client{}
	}
	return ListResult{
		Clients:    clients,
		Fields:     fields,
		Total:      total,
		Pagination: shared.NewPagination(page.Page, page.PerPage, total),
	}, nil
}

// Delete removes the selected clients. Their custom values cascade.
func (s *Service) Delete(ctx context.Context, companyID string, req DeleteRequest) (int64, error) {
	if err := httpx.ValidateStruct(s.validate, req); err != nil {
		return 0, err
	}
	n, err := s.repo.Delete(ctx, companyID, req.IDs)
	if err != nil {
		return 0, err
	}
	s.logger.Info("clients deleted", slog.String("company_id", companyID), slog.Int64("count", n))
	return n, nil
}

// Export renders every client matching search as an xlsx workbook.
func (s *Service) Export(ctx context.Context, companyID, search string) ([]byte, error) {
	var (
		fields  []customfields.Field
		clients []Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fields, err = s.fields.List(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		clients, _, err = s.repo.List(gctx, companyID, search, 0, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export clients: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, fields, clients); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalizeInput(in ClientInput) ClientInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = trimOptional(in.Email)
	in.Phone = trimOptional(in.Phone)
	in.Notes = trimOptional(in.Notes)
	return in
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

// resolveValues checks submitted custom values against the field
// definitions. It returns canonical values to write and field ids to clear.
func resolveValues(fields []customfields.Field, input map[string]string) (map[string]string, []string, error) {
	byID := make(map[string]customfields.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	verr := &httpx.ValidationError{Fields: map[string]string{}}
	set := make(map[string]string, len(input))
	var clear []string
	for id, raw := range input {
		f, ok := byID[id]
		if !ok {
			verr.Fields["custom_values."+id] = "unknown custom field"
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			if f.Required {
				verr.Fields["custom_values."+id] = f.Name + " is required"
				continue
			}
			clear = append(clear, id)
			continue
		}
		v, err := customfields.ParseValue(f, raw)
		if err != nil {
			verr.Fields["custom_values."+id] = err.Error()
			continue
		}
		set[id] = v.String()
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if _, ok := input[f.ID]; !ok {
			verr.Fields["custom_values."+f.ID] = f.Name + " is required"
		}
	}
	if len(verr.Fields) > 0 {
		return nil, nil, verr
	}
	return set, clear, nil
}
