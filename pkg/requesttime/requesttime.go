// Package requesttime pins one wall-clock reading per request so that every
// decision made while serving it (rate-limit windows, audit timestamps)
// observes the same instant. Tests inject a fixed time the same way.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type ctxKey struct{}

var timeKey = ctxKey{}

// Middleware stamps the request context with the arrival time.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := With(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// With returns a context carrying the given time.
func With(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey, t)
}

// Now returns the request arrival time, falling back to time.Now when the
// context was not stamped (background jobs, tests without the middleware).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}
