package station

import (
	"context"
	"errors"
	"log/slog"

	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/platform/sentinel"
)

// Service resolves citizen station suggestions against the registry. A
// suggestion matching an existing natural key returns the existing station;
// a genuinely new one is inserted unverified and flagged for admin merge.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Get returns a station or a coded not-found error.
func (s *Service) Get(ctx context.Context, id int64) (*Station, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "station not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load station")
	}
	return st, nil
}

// Suggest resolves or creates a station from a citizen suggestion.
func (s *Service) Suggest(ctx context.Context, sug Suggestion) (*Station, error) {
	if sug.ConstituencyID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "constituency_id is required")
	}
	if sug.StationNumber <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "station_number must be positive")
	}

	existing, err := s.store.FindByNaturalKey(ctx, sug.ConstituencyID, sug.SubdistrictID, sug.StationNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up station")
	}

	st := &Station{
		ProvinceID:      sug.ProvinceID,
		ProvinceName:    sug.ProvinceName,
		ConstituencyID:  sug.ConstituencyID,
		SubdistrictID:   sug.SubdistrictID,
		SubdistrictName: sug.SubdistrictName,
		StationNumber:   sug.StationNumber,
		LocationName:    sug.LocationName,
		VerifiedExist:   false,
	}
	if err := s.store.Insert(ctx, st); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the insert race; the winner's row is the answer.
			return s.store.FindByNaturalKey(ctx, sug.ConstituencyID, sug.SubdistrictID, sug.StationNumber)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record station suggestion")
	}

	s.logger.InfoContext(ctx, "unlisted station suggested",
		"station_id", st.ID,
		"constituency_id", st.ConstituencyID,
		"station_number", st.StationNumber,
	)
	return st, nil
}
