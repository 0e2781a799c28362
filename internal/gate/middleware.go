package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/towerdesk/towerdesk/internal/auth"
	"github.com/towerdesk/towerdesk/internal/platform/httpx"
	"github.com/towerdesk/towerdesk/internal/session"
)

// Middleware wires token validation and permission gating for HTTP
// handlers.
type Middleware struct {
	Sessions *session.Service
	Logger   *slog.Logger
}

type identityContextKey struct{}

// ContextWithIdentity stores the validated identity in context.
func ContextWithIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the validated identity from context.
func IdentityFromContext(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(session.Identity)
	return id, ok
}

// Require validates the request's bearer token and enforces a minimum
// permission level before the wrapped handler runs. The validated
// identity is placed in the request context for handlers.
func (m Middleware) Require(min auth.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			id, err := m.Sessions.Validate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrTokenExpired):
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token expired")
				case errors.Is(err, session.ErrTokenNotFound), errors.Is(err, session.ErrTokenInvalidated):
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				default:
					if m.Logger != nil {
						m.Logger.Error("validate token", slog.Any("error", err))
					}
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				}
				return
			}
			if !Allow(id, min) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permission level")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken extracts the bearer credential from the Authorization
// header, or empty when absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
