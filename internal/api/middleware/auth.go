package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// AuthMiddleware validates the Bearer token and injects the claims into the
// request context. Refresh tokens are not accepted on API routes.
func AuthMiddleware(tokens *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			if claims.TokenType != "access" {
				unauthorized(w, "not an access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects requests whose authenticated role is not in the allowed
// set. It must sit inside AuthMiddleware.
func RequireRole(roles ...entities.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[string(role)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			// Admin accounts pass every role gate.
			if !allowed[claims.Role] && claims.Role != string(entities.UserRoleAdmin) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "insufficient role"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithClaims returns a context carrying the given claims
func ContextWithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the authenticated claims, if any
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*jwt.Claims)
	return claims, ok
}

// ActorRoleFromClaims collapses the account role onto the ward/center divide.
// Admin accounts act as the center.
func ActorRoleFromClaims(claims *jwt.Claims) entities.ActorRole {
	if claims.Role == string(entities.UserRoleWard) {
		return entities.ActorRoleWard
	}
	return entities.ActorRoleCenter
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
