// Package companies serves the tenant's company profile.
package companies

import (
	"fmt"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// ErrCompanyNotFound is returned when the tenant's company row is missing.
var ErrCompanyNotFound = fmt.Errorf("%w: company", httpx.ErrNotFound)

// Company is a tenant.
type Company struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	CUI       *string   `json:"cui"`
	RegNumber *string   `json:"reg_number"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateRequest is the profile form payload.
type UpdateRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	CUI       *string `json:"cui" validate:"omitempty,max=20"`
	RegNumber *string `json:"reg_number" validate:"omitempty,max=50"`
	Email     *string `json:"email" validate:"omitempty,email,max=200"`
}
