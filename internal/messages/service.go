package messages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// Service generates and stores messages and templates.
type Service struct {
	repo      Repository
	generator Completer
	logger    *slog.Logger
	validate  *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository, generator Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, generator: generator, logger: logger, validate: httpx.NewValidator()}
}

// GenerateMessage writes a personalised message and stores it as a draft.
func (s *Service) GenerateMessage(ctx context.Context, companyID string, p MessageParams) (Message, error) {
	p = withMessageDefaults(p)
	if err := httpx.ValidateStruct(s.validate, p); err != nil {
		return Message{}, err
	}
	companyName, err := s.repo.CompanyName(ctx, companyID)
	if err != nil {
		return Message{}, err
	}
	text, err := s.generator.Complete(ctx, messageSystemPrompt, messagePrompt(p, companyName))
	if err != nil {
		s.logger.Error("generate message", slog.String("company_id", companyID), slog.Any("error", err))
		return Message{}, err
	}
	msg, err := s.repo.InsertMessage(ctx, Message{
		CompanyID:     companyID,
		ClientID:      p.ClientID,
		Content:       text,
		Type:          p.Type,
		Status:        StatusDraft,
		IsAIGenerated: true,
	})
	if err != nil {
		return Message{}, err
	}
	s.logger.Info("message generated", slog.String("company_id", companyID), slog.String("type", string(p.Type)))
	return msg, nil
}

// GenerateTemplate writes a template. It is stored only when p.Save is set;
// otherwise the returned Template has no ID.
func (s *Service) GenerateTemplate(ctx context.Context, companyID string, p TemplateParams) (Template, error) {
	p = withTemplateDefaults(p)
	if err := httpx.ValidateStruct(s.validate, p); err != nil {
		return Template{}, err
	}
	text, err := s.generator.Complete(ctx, templateSystemPrompt, templatePrompt(p))
	if err != nil {
		s.logger.Error("generate template", slog.String("company_id", companyID), slog.Any("error", err))
		return Template{}, err
	}
	tpl := Template{
		CompanyID: companyID,
		Name:      p.Name,
		Content:   text,
		Type:      p.Type,
		Industry:  &p.Industry,
		Purpose:   &p.Purpose,
	}
	if !p.Save {
		return tpl, nil
	}
	return s.repo.InsertTemplate(ctx, tpl)
}

// ListTemplates returns the tenant's templates, newest first.
func (s *Service) ListTemplates(ctx context.Context, companyID string) ([]Template, error) {
	out, err := s.repo.ListTemplates(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Template{}
	}
	return out, nil
}

// SaveTemplate stores a hand-written template.
func (s *Service) SaveTemplate(ctx context.Context, companyID string, req SaveTemplateRequest) (Template, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Content = strings.TrimSpace(req.Content)
	if err := httpx.ValidateStruct(s.validate, req); err != nil {
		return Template{}, err
	}
	return s.repo.InsertTemplate(ctx, Template{
		CompanyID: companyID,
		Name:      req.Name,
		Content:   req.Content,
		Type:      req.Type,
		Industry:  req.Industry,
		Purpose:   req.Purpose,
	})
}

// DeleteTemplate removes one template.
func (s *Service) DeleteTemplate(ctx context.Context, companyID, id string) error {
	if err := s.repo.DeleteTemplate(ctx, companyID, id); err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	return nil
}

func withMessageDefaults(p MessageParams) MessageParams {
	p.ClientName = strings.TrimSpace(p.ClientName)
	p.Industry = strings.TrimSpace(p.Industry)
	p.Purpose = strings.TrimSpace(p.Purpose)
	p.AdditionalInfo = strings.TrimSpace(p.AdditionalInfo)
	if p.Tone == "" {
		p.Tone = ToneProfessional
	}
	if p.Type == "" {
		p.Type = TypeSMS
	}
	if p.ClientID != nil && strings.TrimSpace(*p.ClientID) == "" {
		p.ClientID = nil
	}
	return p
}

func withTemplateDefaults(p TemplateParams) TemplateParams {
	p.Industry = strings.TrimSpace(p.Industry)
	p.Purpose = strings.TrimSpace(p.Purpose)
	p.Name = strings.TrimSpace(p.Name)
	if p.Tone == "" {
		p.Tone = ToneProfessional
	}
	if p.Type == "" {
		p.Type = TypeSMS
	}
	return p
}
