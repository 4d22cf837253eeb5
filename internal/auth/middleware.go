package auth

import (
	"net/http"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// RequireTenant rejects requests whose session carries no user and company,
// and places the identity in the request context.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Trebuie să fii autentificat.")
			return
		}
		id, ok := sess.Identity()
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Trebuie să fii autentificat.")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}
