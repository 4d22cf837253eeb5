package shared

import (
	"errors"
	"fmt"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = fmt.Errorf("%w: record", httpx.ErrNotFound)
	// ErrInvalidCredentials is returned on a failed login. It never says
	// whether the email exists.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	ErrCSRFTokenMissing   = errors.New("csrf token missing")
	ErrCSRFTokenMismatch  = errors.New("csrf token mismatch")
)
