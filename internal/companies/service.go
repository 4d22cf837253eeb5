package companies

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// Service manages the company profile.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: httpx.NewValidator()}
}

// Get returns the tenant's company.
func (s *Service) Get(ctx context.Context, companyID string) (Company, error) {
	return s.repo.Get(ctx, companyID)
}

// Update replaces the editable profile fields. Blank optional fields are cleared.
func (s *Service) Update(ctx context.Context, companyID string, req UpdateRequest) (Company, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = blankToNil(req.Address)
	req.CUI = blankToNil(req.CUI)
	req.RegNumber = blankToNil(req.RegNumber)
	req.Email = blankToNil(req.Email)
	if err := httpx.ValidateStruct(s.validate, req); err != nil {
		return Company{}, err
	}
	return s.repo.Update(ctx, Company{
		ID:        companyID,
		Name:      req.Name,
		Address:   req.Address,
		CUI:       req.CUI,
		RegNumber: req.RegNumber,
		Email:     req.Email,
	})
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
