package ratelimit

import (
	"net"
	"net/http"
	"strconv"

	"github.com/mssola/useragent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sheetwatch/internal/transport/http/shared"
	"sheetwatch/pkg/requesttime"
)

var clientsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sheetwatch_ratelimit_clients_total",
	Help: "Rate-limited requests by client kind (bot, mobile, desktop).",
}, []string{"kind"})

// sessionHeader carries the client's self-assigned session id. Falls back to
// the remote IP when absent.
const sessionHeader = "X-Session-ID"

// Middleware guards citizen write endpoints. Fail-open: a store error lets
// the request through rather than taking uploads down with the limiter.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The window tracks evidence writes only. Reads pass through
			// uncounted so a blocked citizen can still check their uploads.
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			observeClient(r)

			decision, err := limiter.Check(r.Context(), identityFor(r))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				now := requesttime.Now(r.Context())
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter(now)))
				shared.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":      "rate_limited",
					"remaining":  decision.Remaining,
					"reset_time": decision.ResetAt.UTC(),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func identityFor(r *http.Request) string {
	if session := r.Header.Get(sessionHeader); session != "" {
		return session
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func observeClient(r *http.Request) {
	ua := useragent.New(r.UserAgent())
	switch {
	case ua.Bot():
		clientsTotal.WithLabelValues("bot").Inc()
	case ua.Mobile():
		clientsTotal.WithLabelValues("mobile").Inc()
	default:
		clientsTotal.WithLabelValues("desktop").Inc()
	}
}
