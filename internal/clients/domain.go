// Package clients manages a company's client records and their custom values.
package clients

import (
	"fmt"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// ErrClientNotFound is returned when a client does not exist for the tenant.
var ErrClientNotFound = fmt.Errorf("%w: client", httpx.ErrNotFound)

// Client is a client record with its custom values keyed by field id.
type Client struct {
	ID              string            `json:"id"`
	CompanyID       string            `json:"company_id"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Email           *string           `json:"email"`
	Phone           *string           `json:"phone"`
	Notes           *string           `json:"notes"`
	LastAppointment *time.Time        `json:"last_appointment"`
	CreatedAt       time.Time         `json:"created_at"`
	CustomValues    map[string]string `json:"custom_values"`
}

// FullName joins first and last name.
func (c Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ClientInput is the payload for manual create and update.
type ClientInput struct {
	FirstName    string            `json:"first_name" validate:"required,max=100"`
	LastName     string            `json:"last_name" validate:"required,max=100"`
	Email        *string           `json:"email" validate:"omitempty,email,max=200"`
	Phone        *string           `json:"phone" validate:"omitempty,max=50"`
	Notes        *string           `json:"notes" validate:"omitempty,max=2000"`
	CustomValues map[string]string `json:"custom_values"`
}

// ListRequest filters the client list.
type ListRequest struct {
	CompanyID  string
	Search     string
	Pagination shared.Pagination
}

// ListResult is a page of clients with the field definitions to render them.
type ListResult struct {
	Clients    []Client             `json:"clients"`
	Fields     []customfields.Field `json:"fields"`
	Total      int                  `json:"total"`
	Pagination shared.Pagination    `json:"pagination"`
}

// DeleteRequest is the bulk delete payload.
type DeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
