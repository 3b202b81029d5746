package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-service/auth"
	"github.com/jrsteele09/go-session-service/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the authenticated user (sanitized)
const ContextKeyUser ContextKey = "user"

// RequireAuth is middleware that validates a bearer access token. The
// Authorization header takes precedence, falling back to the accessToken
// cookie. All denials produce the same 401 envelope regardless of cause.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken := bearerFromRequest(r)
			if rawToken == "" {
				respondError(w, auth.UnauthorizedErr)
				return
			}

			user, err := s.sessions.Authenticate(r.Context(), rawToken)
			if err != nil {
				respondError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok
}

func bearerFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := r.Cookie(accessTokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
