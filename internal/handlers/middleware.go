package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenIssuer
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenIssuer, limiter *security.RateLimiter) *Middleware {
	return &Middleware{tokens: tokens, limiter: limiter}
}

// RequireAuth validates the bearer token and puts its claims in the context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireParent allows only accounts with the parent role
func (m *Middleware) RequireParent(next http.HandlerFunc) http.HandlerFunc {
	return m.requireRole(models.RoleParent, next)
}

// RequireSupporter allows only accounts with the supporter role
func (m *Middleware) RequireSupporter(next http.HandlerFunc) http.HandlerFunc {
	return m.requireRole(models.RoleSupporter, next)
}

func (m *Middleware) requireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil || claims.Role != string(role) {
			respondError(w, http.StatusForbidden, "wrong account role for this operation")
			return
		}
		next(w, r)
	})
}

// RateLimit rejects clients that exceed the request budget
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetClaimsFromContext retrieves the verified token claims from the context
func GetClaimsFromContext(ctx context.Context) *security.AccessClaims {
	claims, ok := ctx.Value(ClaimsContextKey).(*security.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// userID is a shorthand for the authenticated user's id
func userID(r *http.Request) string {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.Subject
}
