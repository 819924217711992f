package testutil

import (
	"context"
	"net/http"
	"time"

	"sheetwatch/internal/platform/middleware"
	"sheetwatch/pkg/requesttime"
)

// WithReviewer adds an authenticated reviewer to the request context,
// simulating what the reviewer auth middleware does for /admin routes.
func WithReviewer(req *http.Request, reviewerID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyReviewerID, reviewerID)
	ctx = context.WithValue(ctx, middleware.ContextKeyReviewerRole, role)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock so handlers under test see a
// deterministic now.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requesttime.With(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
