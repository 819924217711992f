package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sheetwatch/internal/abuse"
	abusehandler "sheetwatch/internal/abuse/handler"
	"sheetwatch/internal/jwttoken"
	"sheetwatch/internal/ratelimit"
	"sheetwatch/internal/reconcile"
	reconcilehandler "sheetwatch/internal/reconcile/handler"
	"sheetwatch/internal/report"
	reporthandler "sheetwatch/internal/report/handler"
	"sheetwatch/internal/risk"
	riskhandler "sheetwatch/internal/risk/handler"
	"sheetwatch/internal/snapshot"
	snapshothandler "sheetwatch/internal/snapshot/handler"
	"sheetwatch/internal/station"
	stationhandler "sheetwatch/internal/station/handler"
	"sheetwatch/internal/submission"
	submissionhandler "sheetwatch/internal/submission/handler"
)

type RouterSuite struct {
	suite.Suite
	router     http.Handler
	jwt        *jwttoken.JWTService
	killSwitch bool
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.killSwitch = false
	s.jwt = jwttoken.NewJWTService("router-test-key", "sheetwatch-test")

	stations := station.NewInMemoryStore()
	submissions := submission.NewInMemoryStore()
	reports := report.NewInMemoryStore()
	tallies := reconcile.NewInMemoryTallyStore()
	logStore := reconcile.NewInMemoryLogStore()

	stationSvc := station.NewService(stations, logger)
	submissionSvc := submission.NewService(submissions, stations, submission.WithLogger(logger))
	reportSvc := report.NewService(reports, stations, report.WithLogger(logger))
	riskSvc := risk.NewService(stations, submissions, reports, tallies)
	reconcileSvc := reconcile.NewService(submissions, tallies, logStore, reconcile.WithLogger(logger))
	abuseSvc := abuse.NewService(submissionSvc, reportSvc, abuse.WithLogger(logger))

	publisher := snapshot.NewPublisher(snapshot.WithPublisherLogger(logger))
	limiter := ratelimit.NewLimiter(
		ratelimit.NewInMemoryBucketStore(100, time.Minute, time.Minute),
		ratelimit.WithLogger(logger),
	)

	s.router = NewRouter(Deps{
		Logger:     logger,
		JWT:        s.jwt,
		KillSwitch: func() bool { return s.killSwitch },
		Limiter:    limiter,

		Submissions: submissionhandler.New(submissionSvc, logger),
		Reports:     reporthandler.New(reportSvc, logger),
		Stations:    stationhandler.New(stationSvc, submissionSvc, reportSvc, riskSvc, logger),
		Risk:        riskhandler.New(riskSvc, logger),
		Snapshot:    snapshothandler.New(publisher),
		Reconcile:   reconcilehandler.New(reconcileSvc, logger),
		Abuse:       abusehandler.New(abuseSvc, logger),
	})
}

func (s *RouterSuite) TestHealthz() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestMetricsExposed() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestAdminRequiresToken() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/queue/next", nil))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestAdminAcceptsReviewerToken() {
	token, err := s.jwt.GenerateReviewerToken("rev-1", "reviewer", time.Hour)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/admin/queue/next", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "queue_empty")
}

func (s *RouterSuite) TestSnapshotBeforeFirstPublish() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *RouterSuite) TestKillSwitchBlocksWrites() {
	s.killSwitch = true

	body := strings.NewReader(`{"station_id": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/evidence/upload", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusServiceUnavailable, rec.Code)

	// Reads stay up.
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stations/1/risk", nil))
	s.Equal(http.StatusNotFound, rec.Code, "unknown station, but the route itself is served")
}

func (s *RouterSuite) TestPublicWriteCarriesRateLimitHeaders() {
	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/evidence/upload", body)
	req.Header.Set("X-Session-ID", "sess-router")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.NotEmpty(rec.Header().Get("X-RateLimit-Limit"))
}
