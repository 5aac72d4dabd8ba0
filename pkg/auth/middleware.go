package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// MiddlewareConfig configures the auth middleware.
type MiddlewareConfig struct {
	// Validator validates bearer tokens.
	Validator *JWTValidator

	// ExcludedPaths bypass authentication entirely.
	ExcludedPaths []string

	// RequireAuth rejects unauthenticated requests with 401. When false,
	// requests without a token proceed with no claims in the context.
	RequireAuth bool
}

// Middleware creates an HTTP middleware that validates bearer tokens and
// stores the claims in the request context.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Validator == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	excluded := make(map[string]bool, len(cfg.ExcludedPaths))
	for _, path := range cfg.ExcludedPaths {
		excluded[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excluded[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if cfg.RequireAuth {
					writeAuthError(w, "missing Authorization header")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeAuthError(w, "invalid Authorization format, expected: Bearer <token>")
				return
			}

			claims, err := cfg.Validator.ValidateToken(r.Context(), tokenString)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole wraps a handler so only the given roles may reach it.
// It assumes Middleware already ran and stored claims in the context.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeAuthError(w, "authentication required")
				return
			}

			for _, role := range allowedRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    "forbidden",
					"message": "insufficient permissions",
				},
			})
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    "unauthorized",
			"message": message,
		},
	})
}
