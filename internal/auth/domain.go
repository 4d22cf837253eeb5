// Package auth handles account registration, login and the tenant guard.
package auth

import (
	"fmt"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// ErrEmailTaken is returned when registering an address that already has an account.
var ErrEmailTaken = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)

// User represents an authenticated user account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account is a user with the company it owns.
type Account struct {
	User        User   `json:"user"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=200"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FullName    string `json:"full_name" validate:"required,max=200"`
	CompanyName string `json:"company_name" validate:"required,max=200"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
