package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetwatch/internal/reconcile"
	"sheetwatch/internal/report"
	"sheetwatch/internal/risk"
	"sheetwatch/internal/station"
	"sheetwatch/internal/submission"
)

type fixture struct {
	router      *chi.Mux
	stations    *station.InMemoryStore
	submissions *submission.InMemoryStore
	reports     *report.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stations := station.NewInMemoryStore()
	submissions := submission.NewInMemoryStore()
	reports := report.NewInMemoryStore()

	stationSvc := station.NewService(stations, logger)
	submissionSvc := submission.NewService(submissions, stations, submission.WithLogger(logger))
	reportSvc := report.NewService(reports, stations, report.WithLogger(logger))
	riskSvc := risk.NewService(stations, submissions, reports,
		reconcile.NewInMemoryTallyStore(), risk.WithLogger(logger))

	h := New(stationSvc, submissionSvc, reportSvc, riskSvc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return &fixture{router: r, stations: stations, submissions: submissions, reports: reports}
}

func TestSuggestCreatesUnverifiedStation(t *testing.T) {
	f := newFixture(t)

	body := `{"province_id":10,"province_name":"Chiang Mai","constituency_id":1001,"station_number":7}`
	req := httptest.NewRequest(http.MethodPost, "/stations/suggest", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_verified_exist"])
	assert.NotZero(t, resp["id"])
}

func TestSuggestResolvesDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := &station.Station{ConstituencyID: 1001, StationNumber: 7, VerifiedExist: true}
	require.NoError(t, f.stations.Insert(ctx, existing))

	body := `{"constituency_id":1001,"station_number":7}`
	req := httptest.NewRequest(http.MethodPost, "/stations/suggest", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(existing.ID), resp["id"], "duplicate suggestion resolves to the existing row")
	assert.Equal(t, true, resp["is_verified_exist"])
}

func TestSuggestValidation(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/stations/suggest", bytes.NewReader([]byte(`{"station_number":7}`)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvidenceView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st := &station.Station{ConstituencyID: 1001, StationNumber: 1, VerifiedExist: true}
	require.NoError(t, f.stations.Insert(ctx, st))

	photoKey := "photos/c.jpg"
	require.NoError(t, f.submissions.Insert(ctx, &submission.Submission{
		ID:                   uuid.New(),
		StationID:            st.ID,
		PhotoConstituencyKey: &photoKey,
	}))
	require.NoError(t, f.reports.AppendIncident(ctx, &report.IncidentReport{
		StationID: st.ID, Type: report.IncidentFormNotPosted,
	}))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/stations/%d/evidence", st.ID), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Len(t, resp["submissions"], 1)
	assert.Len(t, resp["incidents"], 1)
	assert.Len(t, resp["custody_events"], 0)
	riskView := resp["risk"].(map[string]any)
	assert.Equal(t, float64(20), riskView["risk_score"])
}

func TestEvidenceViewUnknownStation(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/stations/404/evidence", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
