package submission

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sheetwatch/internal/station"
	"sheetwatch/pkg/domain"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/platform/sentinel"
	"sheetwatch/pkg/requesttime"
)

type SubmissionServiceSuite struct {
	suite.Suite
	svc      *Service
	store    *InMemoryStore
	stations *station.InMemoryStore
	ctx      context.Context
	station  *station.Station
}

func TestSubmissionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubmissionServiceSuite))
}

func (s *SubmissionServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.stations = station.NewInMemoryStore()
	s.svc = NewService(s.store, s.stations,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.ctx = context.Background()

	s.station = &station.Station{ConstituencyID: 1001, StationNumber: 1, VerifiedExist: true}
	s.Require().NoError(s.stations.Insert(s.ctx, s.station))
}

func strPtr(v string) *string { return &v }
func intPtr(v int64) *int64   { return &v }

func (s *SubmissionServiceSuite) TestCreateDerivesSheetStatuses() {
	sub, err := s.svc.Create(s.ctx, CreateRequest{
		StationID:                 s.station.ID,
		PhotoConstituencyKey:      strPtr("photos/c1.jpg"),
		ChecksumConstituencyTotal: intPtr(534),
	})
	s.Require().NoError(err)

	s.Equal(domain.StatusPending, sub.StatusConstituency, "sheet with photo starts pending")
	s.Equal(domain.StatusMissing, sub.StatusPartyList, "sheet without photo starts missing")
	s.Equal(int64(534), *sub.ChecksumConstituencyTotal)
	s.Nil(sub.ChecksumPartyListTotal)
}

func (s *SubmissionServiceSuite) TestStatusMissingIffPhotoMissing() {
	cases := []struct {
		name      string
		photoC    *string
		photoP    *string
		expectedC domain.SheetStatus
		expectedP domain.SheetStatus
	}{
		{"both photos", strPtr("c.jpg"), strPtr("p.jpg"), domain.StatusPending, domain.StatusPending},
		{"constituency only", strPtr("c.jpg"), nil, domain.StatusPending, domain.StatusMissing},
		{"partylist only", nil, strPtr("p.jpg"), domain.StatusMissing, domain.StatusPending},
		{"no photos", nil, nil, domain.StatusMissing, domain.StatusMissing},
		{"empty key treated as missing", strPtr(""), nil, domain.StatusMissing, domain.StatusMissing},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			sub, err := s.svc.Create(s.ctx, CreateRequest{
				StationID:            s.station.ID,
				PhotoConstituencyKey: tc.photoC,
				PhotoPartyListKey:    tc.photoP,
			})
			s.Require().NoError(err)
			s.Equal(tc.expectedC, sub.StatusConstituency)
			s.Equal(tc.expectedP, sub.StatusPartyList)
		})
	}
}

func (s *SubmissionServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, CreateRequest{})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput), "missing station_id")

	_, err = s.svc.Create(s.ctx, CreateRequest{
		StationID:                 s.station.ID,
		ChecksumConstituencyTotal: intPtr(-1),
	})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput), "negative checksum")

	_, err = s.svc.Create(s.ctx, CreateRequest{StationID: 99999})
	s.True(dErrors.Is(err, dErrors.CodeNotFound), "unknown station")
}

func (s *SubmissionServiceSuite) TestCreateWithoutPersistence() {
	svc := NewService(nil, s.stations)
	_, err := svc.Create(s.ctx, CreateRequest{StationID: s.station.ID})
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))
}

func (s *SubmissionServiceSuite) TestQueueReturnsOldestFirst() {
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	ctxOld := requesttime.With(s.ctx, base)
	old, err := s.svc.Create(ctxOld, CreateRequest{StationID: s.station.ID, PhotoConstituencyKey: strPtr("old.jpg")})
	s.Require().NoError(err)

	ctxNew := requesttime.With(s.ctx, base.Add(time.Minute))
	_, err = s.svc.Create(ctxNew, CreateRequest{StationID: s.station.ID, PhotoConstituencyKey: strPtr("new.jpg")})
	s.Require().NoError(err)

	next, err := s.svc.NextInQueue(s.ctx, domain.SheetConstituency, domain.StatusPending)
	s.Require().NoError(err)
	s.Require().NotNil(next)
	s.Equal(old.ID, next.ID)
}

func (s *SubmissionServiceSuite) TestQueueEmpty() {
	next, err := s.svc.NextInQueue(s.ctx, domain.SheetPartyList, domain.StatusPending)
	s.Require().NoError(err)
	s.Nil(next)

	_, err = s.svc.NextInQueue(s.ctx, "ballot", domain.StatusPending)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *SubmissionServiceSuite) TestUpdateStatusVersionConflict() {
	sub, err := s.svc.Create(s.ctx, CreateRequest{StationID: s.station.ID, PhotoConstituencyKey: strPtr("c.jpg")})
	s.Require().NoError(err)

	err = s.store.UpdateStatus(s.ctx, sub.ID, domain.SheetConstituency, domain.StatusVerified, sub.Version)
	s.Require().NoError(err)

	// Second writer still holds the old version and must lose.
	err = s.store.UpdateStatus(s.ctx, sub.ID, domain.SheetConstituency, domain.StatusRejected, sub.Version)
	s.ErrorIs(err, sentinel.ErrConflict)

	got, err := s.store.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, got.StatusConstituency, "first writer's status must survive")
}

func (s *SubmissionServiceSuite) TestUpdateStatusUnknownSubmission() {
	err := s.store.UpdateStatus(s.ctx, uuid.New(), domain.SheetConstituency, domain.StatusVerified, 0)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SubmissionServiceSuite) TestListBySessionWindow() {
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)
	session := "sess-1"

	ctxOld := requesttime.With(s.ctx, base.Add(-2*time.Hour))
	_, err := s.svc.Create(ctxOld, CreateRequest{StationID: s.station.ID, SessionID: &session})
	s.Require().NoError(err)

	ctxRecent := requesttime.With(s.ctx, base.Add(-10*time.Minute))
	_, err = s.svc.Create(ctxRecent, CreateRequest{StationID: s.station.ID, SessionID: &session})
	s.Require().NoError(err)

	ctxNow := requesttime.With(s.ctx, base)
	subs, err := s.svc.ListBySession(ctxNow, session, time.Hour)
	s.Require().NoError(err)
	s.Len(subs, 1, "only activity inside the window counts")
}
