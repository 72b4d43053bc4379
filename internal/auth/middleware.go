// ABOUTME: Bearer-token authentication middleware for the mock generation server.
// ABOUTME: Rejects requests without a token and exposes the token on the request context.

package auth

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/2389/partnergen/internal/errors"
)

type contextKey string

const tokenContextKey contextKey = "token"

// Middleware requires an "Authorization: Bearer <token>" header. When
// allowed is non-empty, the token must be one of them.
func Middleware(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r.Header.Get("Authorization"))
			if token == "" {
				apierrors.WriteError(w, http.StatusUnauthorized, apierrors.ErrInvalidAPIKey,
					"You didn't provide an API key. Provide it in an Authorization header using Bearer auth.")
				return
			}
			if len(allowed) > 0 && !contains(allowed, token) {
				apierrors.WriteError(w, http.StatusUnauthorized, apierrors.ErrInvalidAPIKey,
					"Incorrect API key provided.")
				return
			}
			ctx := context.WithValue(r.Context(), tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext returns the authenticated token, or "" when none.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
