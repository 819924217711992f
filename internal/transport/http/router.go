// Package httptransport assembles the HTTP surface: citizen evidence routes,
// the public snapshot, and the reviewer admin routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	abusehandler "sheetwatch/internal/abuse/handler"
	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/ratelimit"
	reconcilehandler "sheetwatch/internal/reconcile/handler"
	reporthandler "sheetwatch/internal/report/handler"
	riskhandler "sheetwatch/internal/risk/handler"
	snapshothandler "sheetwatch/internal/snapshot/handler"
	stationhandler "sheetwatch/internal/station/handler"
	submissionhandler "sheetwatch/internal/submission/handler"
	"sheetwatch/pkg/requesttime"
)

// Deps carries everything the router needs. Handlers own their routes; the
// router owns the middleware chains around them.
type Deps struct {
	Logger     *slog.Logger
	JWT        middleware.JWTValidator
	KillSwitch func() bool
	Limiter    *ratelimit.Limiter

	Submissions *submissionhandler.Handler
	Reports     *reporthandler.Handler
	Stations    *stationhandler.Handler
	Risk        *riskhandler.Handler
	Snapshot    *snapshothandler.Handler
	Reconcile   *reconcilehandler.Handler
	Abuse       *abusehandler.Handler
}

// NewRouter wires all endpoints. Citizen write routes sit behind the rate
// limiter; /admin routes require a valid reviewer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Citizen-facing routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.KillSwitch(deps.KillSwitch))
		r.Use(ratelimit.Middleware(deps.Limiter))

		deps.Submissions.RegisterPublic(r)
		deps.Reports.Register(r)
		deps.Stations.Register(r)
		deps.Risk.Register(r)
		deps.Snapshot.Register(r)
	})

	// Reviewer routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.KillSwitch(deps.KillSwitch))
		r.Use(middleware.RequireReviewer(deps.JWT, deps.Logger))

		deps.Submissions.RegisterAdmin(r)
		deps.Reconcile.Register(r)
		deps.Abuse.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
