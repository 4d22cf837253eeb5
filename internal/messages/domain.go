// Package messages generates client messages and reusable templates through
// a text-generation API.
package messages

import (
	"fmt"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// ErrTemplateNotFound is returned when a template does not exist for the tenant.
var ErrTemplateNotFound = fmt.Errorf("%w: message template", httpx.ErrNotFound)

// Type is the delivery channel of a message.
type Type string

const (
	TypeSMS      Type = "sms"
	TypeEmail    Type = "email"
	TypeWhatsApp Type = "whatsapp"
)

// Tone is the register the generated text is written in.
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
)

// Status of a stored message.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Message is a stored client message.
type Message struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	ClientID      *string   `json:"client_id"`
	Content       string    `json:"content"`
	Type          Type      `json:"type"`
	Status        Status    `json:"status"`
	IsAIGenerated bool      `json:"is_ai_generated"`
	CreatedAt     time.Time `json:"created_at"`
}

// Template is a reusable message with [PLACEHOLDER] variables.
type Template struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	Industry  *string   `json:"industry"`
	Purpose   *string   `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageParams drives a personalised message.
type MessageParams struct {
	ClientID       *string `json:"client_id" validate:"omitempty,uuid"`
	ClientName     string  `json:"client_name" validate:"required,max=200"`
	Industry       string  `json:"industry" validate:"required,max=100"`
	Purpose        string  `json:"purpose" validate:"required,max=500"`
	AdditionalInfo string  `json:"additional_info" validate:"max=2000"`
	Tone           Tone    `json:"tone" validate:"omitempty,oneof=formal friendly professional"`
	Type           Type    `json:"type" validate:"omitempty,oneof=sms email whatsapp"`
}

// TemplateParams drives a generated template. Name and Save control
// whether the result is stored.
type TemplateParams struct {
	Industry string `json:"industry" validate:"required,max=100"`
	Purpose  string `json:"purpose" validate:"required,max=500"`
	Tone     Tone   `json:"tone" validate:"omitempty,oneof=formal friendly professional"`
	Type     Type   `json:"type" validate:"omitempty,oneof=sms email whatsapp"`
	Name     string `json:"name" validate:"required_if=Save true,max=200"`
	Save     bool   `json:"save"`
}

// SaveTemplateRequest stores a template written by hand.
type SaveTemplateRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Content  string  `json:"content" validate:"required,max=5000"`
	Type     Type    `json:"type" validate:"required,oneof=sms email whatsapp"`
	Industry *string `json:"industry" validate:"omitempty,max=100"`
	Purpose  *string `json:"purpose" validate:"omitempty,max=500"`
}
