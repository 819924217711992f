//go:build integration

package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
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
	httptransport "sheetwatch/internal/transport/http"
	"sheetwatch/pkg/testutil"
	"sheetwatch/pkg/testutil/containers"
)

// APISuite drives the whole service end to end: real router, real PostgreSQL
// stores, real Redis rate limiting.
type APISuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	redis *containers.RedisContainer

	router    http.Handler
	runner    *snapshot.Runner
	stations  *station.PostgresStore
	jwt       *jwttoken.JWTService
	ctx       context.Context
	stationID int64
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.ApplySchema(s.T(), filepath.Join("..", "..", "..", "db", "schema.sql"))
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *APISuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(context.Background())
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *APISuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
	s.Require().NoError(s.redis.FlushAll(s.ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.NewJWTService("api-test-key", "sheetwatch-test")

	s.stations = station.NewPostgres(s.pg.DB)
	submissions := submission.NewPostgres(s.pg.DB)
	reports := report.NewPostgres(s.pg.DB)
	tallies := reconcile.NewPostgresTallyStore(s.pg.DB)
	logStore := reconcile.NewPostgresLogStore(s.pg.DB)

	stationSvc := station.NewService(s.stations, logger)
	submissionSvc := submission.NewService(submissions, s.stations, submission.WithLogger(logger))
	reportSvc := report.NewService(reports, s.stations, report.WithLogger(logger))
	riskSvc := risk.NewService(s.stations, submissions, reports, tallies)
	reconcileSvc := reconcile.NewService(submissions, tallies, logStore, reconcile.WithLogger(logger))
	abuseSvc := abuse.NewService(submissionSvc, reportSvc, abuse.WithLogger(logger))

	publisher := snapshot.NewPublisher(snapshot.WithPublisherLogger(logger))
	s.runner = snapshot.NewRunner(
		snapshot.NewPostgresSource(s.pg.DB, s.stations, submissions, tallies),
		publisher,
		snapshot.WithRunnerLogger(logger))

	limiter := ratelimit.NewLimiter(
		ratelimit.NewRedisBucketStore(s.redis.Client, 30, time.Minute, time.Minute),
		ratelimit.WithLogger(logger),
	)

	s.router = httptransport.NewRouter(httptransport.Deps{
		Logger:     logger,
		JWT:        s.jwt,
		KillSwitch: func() bool { return false },
		Limiter:    limiter,

		Submissions: submissionhandler.New(submissionSvc, logger),
		Reports:     reporthandler.New(reportSvc, logger),
		Stations:    stationhandler.New(stationSvc, submissionSvc, reportSvc, riskSvc, logger),
		Risk:        riskhandler.New(riskSvc, logger),
		Snapshot:    snapshothandler.New(publisher),
		Reconcile:   reconcilehandler.New(reconcileSvc, logger),
		Abuse:       abusehandler.New(abuseSvc, logger),
	})

	st := &station.Station{
		ProvinceID:     10,
		ProvinceName:   "Bangkok",
		ConstituencyID: 101,
		StationNumber:  1,
		VerifiedExist:  true,
	}
	s.Require().NoError(s.stations.Insert(s.ctx, st))
	s.stationID = st.ID
}

func (s *APISuite) reviewerToken() string {
	token, err := s.jwt.GenerateReviewerToken("rev-1", "reviewer", time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *APISuite) TestUploadTallySnapshotFlow() {
	// Citizen uploads evidence with a self-reported checksum.
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/evidence/upload", map[string]any{
		"station_id":                  s.stationID,
		"photo_constituency_key":      "photos/e2e.jpg",
		"checksum_constituency_total": 534,
	})
	req.Header.Set("X-Session-ID", "sess-e2e")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	type uploadResponse struct {
		SubmissionID       string `json:"submission_id"`
		StatusConstituency string `json:"status_constituency"`
		StatusPartyList    string `json:"status_partylist"`
	}
	uploaded := testutil.UnmarshalResponse[uploadResponse](s.T(), rr)
	s.Equal("pending", uploaded.StatusConstituency)
	s.Equal("missing", uploaded.StatusPartyList)

	// Reviewer transcribes a matching tally; the sheet auto-verifies.
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tally", map[string]any{
		"submission_id": uploaded.SubmissionID,
		"sheet_type":    "constituency",
		"score_map":     map[string]int64{"cand_1": 300, "cand_2": 234, "total_valid": 534},
	})
	req.Header.Set("Authorization", "Bearer "+s.reviewerToken())
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "verified")
	testutil.AssertJSONContains(s.T(), rr, "auto_verified", true)

	// The next aggregator run publishes the verified evidence.
	s.Require().NoError(s.runner.RunOnce(s.ctx))
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/snapshot"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONHasKey(s.T(), rr, "metadata")
	testutil.AssertJSONHasKey(s.T(), rr, "provenance")
}

func (s *APISuite) TestAdminRejectsBadToken() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/queue/next")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *APISuite) TestRateLimitOverRedis() {
	var last int
	for i := 0; i < 31; i++ {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/evidence/upload", map[string]any{
			"station_id":             s.stationID,
			"photo_constituency_key": "photos/spam.jpg",
		})
		req.Header.Set("X-Session-ID", "sess-flood")
		last = testutil.DoRequest(s.router, req).Code
	}
	s.Equal(http.StatusTooManyRequests, last)
}

func (s *APISuite) TestUnknownStationRejected() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/evidence/upload", map[string]any{
		"station_id":             999999,
		"photo_constituency_key": "photos/x.jpg",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}
