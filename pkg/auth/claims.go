// Package auth provides JWT-based authentication for the HTTP server.
//
// Tokens are validated against a JWKS endpoint (Auth0, Firebase, Keycloak,
// any standards-compliant provider) with automatic key refresh. Validated
// claims travel in the request context; handlers read the user ID with
// UserID or the full claim set with ClaimsFromContext.
package auth

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// claimsContextKey is the context key for storing validated claims.
const claimsContextKey contextKey = "agora_auth_claims"

// Claims represents the validated claims from a JWT token.
type Claims struct {
	// Subject is the unique identifier for the user (sub claim).
	Subject string `json:"sub"`

	// Email is the user's email address (if provided).
	Email string `json:"email,omitempty"`

	// Name is the user's display name (if provided).
	Name string `json:"name,omitempty"`

	// Role is the user's role for authorization decisions.
	Role string `json:"role,omitempty"`

	// Custom contains any additional claims not mapped to struct fields.
	Custom map[string]any `json:"-"`
}

// GetClaim retrieves a custom claim by key.
func (c *Claims) GetClaim(key string) (any, bool) {
	if c.Custom == nil {
		return nil, false
	}
	val, ok := c.Custom[key]
	return val, ok
}

// WithClaims returns a context carrying the validated claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the validated claims, or nil when the request
// was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

// UserID returns the authenticated user's subject, or empty when the
// request was not authenticated. This is the quota principal.
func UserID(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}
