package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating reviewer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	ReviewerID string
	Role       string
}

type contextKeyReviewerID struct{}
type contextKeyReviewerRole struct{}

// Context keys are exported for use in handlers and tests.
var (
	ContextKeyReviewerID   = contextKeyReviewerID{}
	ContextKeyReviewerRole = contextKeyReviewerRole{}
)

// GetReviewerID retrieves the authenticated reviewer id from the context.
func GetReviewerID(ctx context.Context) string {
	reviewerID, ok := ctx.Value(ContextKeyReviewerID).(string)
	if !ok {
		return ""
	}
	return reviewerID
}

// GetReviewerRole retrieves the reviewer role from the context.
func GetReviewerRole(ctx context.Context) string {
	role, ok := ctx.Value(ContextKeyReviewerRole).(string)
	if !ok {
		return ""
	}
	return role
}

// RequireReviewer guards admin routes. Requests without a valid bearer token
// are rejected before they reach a handler.
func RequireReviewer(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyReviewerID, claims.ReviewerID)
			ctx = context.WithValue(ctx, ContextKeyReviewerRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
