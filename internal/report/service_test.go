package report

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sheetwatch/internal/station"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/requesttime"
)

type ReportServiceSuite struct {
	suite.Suite
	svc      *Service
	store    *InMemoryStore
	stations *station.InMemoryStore
	ctx      context.Context
	station  *station.Station
}

func TestReportServiceSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceSuite))
}

func (s *ReportServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.stations = station.NewInMemoryStore()
	s.svc = NewService(s.store, s.stations,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.ctx = context.Background()

	s.station = &station.Station{ConstituencyID: 1001, StationNumber: 3, VerifiedExist: true}
	s.Require().NoError(s.stations.Insert(s.ctx, s.station))
}

func (s *ReportServiceSuite) TestReportIncident() {
	incident, err := s.svc.ReportIncident(s.ctx, IncidentRequest{
		StationID: s.station.ID,
		Type:      IncidentFormNotPosted,
		Note:      "form taken down before photos could be taken",
		MediaKeys: []string{"media/a.jpg"},
	})
	s.Require().NoError(err)
	s.Equal(IncidentFormNotPosted, incident.Type)

	got, err := s.svc.IncidentsByStation(s.ctx, s.station.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(incident.ID, got[0].ID)
}

func (s *ReportServiceSuite) TestReportCustody() {
	event, err := s.svc.ReportCustody(s.ctx, CustodyRequest{
		StationID: s.station.ID,
		Type:      CustodySealBrokenOrMismatch,
	})
	s.Require().NoError(err)

	got, err := s.svc.CustodyByStation(s.ctx, s.station.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(event.ID, got[0].ID)
}

func (s *ReportServiceSuite) TestValidation() {
	_, err := s.svc.ReportIncident(s.ctx, IncidentRequest{Type: IncidentOther})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput), "missing station_id")

	_, err = s.svc.ReportIncident(s.ctx, IncidentRequest{StationID: s.station.ID, Type: "vandalism"})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput), "unknown incident type")

	_, err = s.svc.ReportCustody(s.ctx, CustodyRequest{StationID: 99999, Type: CustodyBoxMoved})
	s.True(dErrors.Is(err, dErrors.CodeNotFound), "unknown station")
}

func (s *ReportServiceSuite) TestSessionActivityWindow() {
	base := time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)
	session := "sess-9"

	ctxOld := requesttime.With(s.ctx, base.Add(-2*time.Hour))
	_, err := s.svc.ReportIncident(ctxOld, IncidentRequest{
		StationID: s.station.ID, Type: IncidentOther, SessionID: &session,
	})
	s.Require().NoError(err)

	ctxRecent := requesttime.With(s.ctx, base.Add(-5*time.Minute))
	_, err = s.svc.ReportIncident(ctxRecent, IncidentRequest{
		StationID: s.station.ID, Type: IncidentOther, SessionID: &session,
	})
	s.Require().NoError(err)
	_, err = s.svc.ReportCustody(ctxRecent, CustodyRequest{
		StationID: s.station.ID, Type: CustodyOther, SessionID: &session,
	})
	s.Require().NoError(err)

	ctxNow := requesttime.With(s.ctx, base)
	incidents, custody, err := s.svc.SessionActivity(ctxNow, session, time.Hour)
	s.Require().NoError(err)
	s.Len(incidents, 1, "only activity inside the window counts")
	s.Len(custody, 1)
}
