package shared

import (
	"context"
	"fmt"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// Identity is the authenticated user and the tenant they act for.
type Identity struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
}

type sessionContextKey struct{}

type identityContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the tenant identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the tenant identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// ErrNoIdentity is returned when a request carries no tenant identity.
var ErrNoIdentity = fmt.Errorf("%w: no tenant identity", httpx.ErrUnauthorized)

// RequireIdentity returns the tenant identity or ErrNoIdentity.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == "" || id.CompanyID == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
