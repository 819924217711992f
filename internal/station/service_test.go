package station

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "sheetwatch/pkg/domain-errors"
)

type StationServiceSuite struct {
	suite.Suite
	svc   *Service
	store *InMemoryStore
	ctx   context.Context
}

func TestStationServiceSuite(t *testing.T) {
	suite.Run(t, new(StationServiceSuite))
}

func (s *StationServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.svc = NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *StationServiceSuite) TestSuggestCreatesUnverifiedStation() {
	st, err := s.svc.Suggest(s.ctx, Suggestion{
		ProvinceID:      10,
		ProvinceName:    "Bangkok",
		ConstituencyID:  1001,
		SubdistrictName: "Phra Borom Maha Ratchawang",
		StationNumber:   7,
	})
	s.Require().NoError(err)
	s.False(st.VerifiedExist)
	s.NotZero(st.ID)
}

func (s *StationServiceSuite) TestDuplicateSuggestionResolvesToExisting() {
	first, err := s.svc.Suggest(s.ctx, Suggestion{
		ProvinceID:     10,
		ConstituencyID: 1001,
		StationNumber:  7,
	})
	s.Require().NoError(err)

	second, err := s.svc.Suggest(s.ctx, Suggestion{
		ProvinceID:     10,
		ConstituencyID: 1001,
		StationNumber:  7,
	})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID, "duplicate suggestion must resolve to the existing station")

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StationServiceSuite) TestDistinctSubdistrictsAreDistinctStations() {
	subA, subB := int64(31), int64(32)

	a, err := s.svc.Suggest(s.ctx, Suggestion{ConstituencyID: 1001, SubdistrictID: &subA, StationNumber: 7})
	s.Require().NoError(err)
	b, err := s.svc.Suggest(s.ctx, Suggestion{ConstituencyID: 1001, SubdistrictID: &subB, StationNumber: 7})
	s.Require().NoError(err)
	s.NotEqual(a.ID, b.ID)
}

func (s *StationServiceSuite) TestSuggestValidation() {
	_, err := s.svc.Suggest(s.ctx, Suggestion{StationNumber: 7})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

	_, err = s.svc.Suggest(s.ctx, Suggestion{ConstituencyID: 1001})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *StationServiceSuite) TestGetUnknownStation() {
	_, err := s.svc.Get(s.ctx, 999)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}
