package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// Mailer queues outbound mail.
type Mailer interface {
	EnqueueMail(ctx context.Context, to, subject, body string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	mailer   Mailer
	logger   *slog.Logger
	validate *validator.Validate
	cost     int
}

// NewService constructs a new Service. mailer may be nil.
func NewService(repo Repository, mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, mailer: mailer, logger: logger, validate: httpx.NewValidator(), cost: bcrypt.DefaultCost}
}

// Register creates a user and the company it owns in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Account, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if err := httpx.ValidateStruct(s.validate, req); err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	var account Account
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		user, err := repo.CreateUser(ctx, User{Email: req.Email, FullName: req.FullName, PasswordHash: string(hash)})
		if err != nil {
			return err
		}
		companyID, err := repo.CreateCompany(ctx, user.ID, req.CompanyName, req.Email)
		if err != nil {
			return err
		}
		account = Account{User: user, CompanyID: companyID, CompanyName: req.CompanyName}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("register: %w", err)
	}

	if s.mailer != nil {
		body := fmt.Sprintf("Bună, %s!\n\nContul pentru %s a fost creat. Te poți autentifica oricând în AI Secretary.", req.FullName, req.CompanyName)
		if err := s.mailer.EnqueueMail(ctx, req.Email, "Bine ai venit în AI Secretary", body); err != nil {
			s.logger.Warn("enqueue welcome mail", slog.String("user_id", account.User.ID), slog.Any("error", err))
		}
	}
	s.logger.Info("account registered", slog.String("user_id", account.User.ID), slog.String("company_id", account.CompanyID))
	return account, nil
}

// Authenticate validates email/password credentials and resolves the tenant.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (Account, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := httpx.ValidateStruct(s.validate, req); err != nil {
		return Account{}, err
	}
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, shared.ErrNotFound) {
		return Account{}, shared.ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	companyID, companyName, err := s.repo.CompanyForUser(ctx, user.ID)
	if err != nil {
		return Account{}, fmt.Errorf("resolve company: %w", err)
	}
	return Account{User: user, CompanyID: companyID, CompanyName: companyName}, nil
}
