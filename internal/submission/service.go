package submission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sheetwatch/internal/station"
	"sheetwatch/pkg/domain"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/platform/sentinel"
	"sheetwatch/pkg/requesttime"
)

var submissionsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sheetwatch_submissions_created_total",
	Help: "Total number of evidence submissions recorded.",
})

// StationResolver is the slice of the station store this service needs.
type StationResolver interface {
	Get(ctx context.Context, id int64) (*station.Station, error)
}

// CreateRequest carries the validated upload payload.
type CreateRequest struct {
	StationID                 int64
	PhotoConstituencyKey      *string
	PhotoPartyListKey         *string
	ChecksumConstituencyTotal *int64
	ChecksumPartyListTotal    *int64
	SessionID                 *string
}

// Service owns submission creation and the review queue. Status mutation
// after creation belongs exclusively to the reconciliation engine.
type Service struct {
	store    Store
	stations StationResolver
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, stations StationResolver, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		stations: stations,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create records one evidence submission. Each sheet starts pending when its
// photo key is present and missing otherwise; a sheet is never created in
// any other state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Submission, error) {
	if s.store == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "submission persistence is not configured")
	}
	if req.StationID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "station_id is required")
	}
	if err := validateChecksum(req.ChecksumConstituencyTotal); err != nil {
		return nil, err
	}
	if err := validateChecksum(req.ChecksumPartyListTotal); err != nil {
		return nil, err
	}

	if _, err := s.stations.Get(ctx, req.StationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "station not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve station")
	}

	sub := &Submission{
		ID:                        uuid.New(),
		StationID:                 req.StationID,
		CreatedAt:                 requesttime.Now(ctx).UTC(),
		StatusConstituency:        initialStatus(req.PhotoConstituencyKey),
		StatusPartyList:           initialStatus(req.PhotoPartyListKey),
		PhotoConstituencyKey:      req.PhotoConstituencyKey,
		PhotoPartyListKey:         req.PhotoPartyListKey,
		ChecksumConstituencyTotal: req.ChecksumConstituencyTotal,
		ChecksumPartyListTotal:    req.ChecksumPartyListTotal,
		SessionID:                 req.SessionID,
	}

	if err := s.store.Insert(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "station not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record submission")
	}

	submissionsCreated.Inc()
	s.logger.InfoContext(ctx, "submission created",
		"submission_id", sub.ID,
		"station_id", sub.StationID,
		"status_constituency", sub.StatusConstituency,
		"status_partylist", sub.StatusPartyList,
	)
	return sub, nil
}

// Get returns one submission.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}
	return sub, nil
}

// NextInQueue returns the oldest submission whose sheet carries the given
// status, or nil when the queue is empty.
func (s *Service) NextInQueue(ctx context.Context, sheet domain.SheetType, status domain.SheetStatus) (*Submission, error) {
	if !sheet.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid sheet_type")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	sub, err := s.store.NextPending(ctx, sheet, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read review queue")
	}
	return sub, nil
}

// ListByStation returns a station's submissions in stable order.
func (s *Service) ListByStation(ctx context.Context, stationID int64) ([]*Submission, error) {
	subs, err := s.store.ListByStation(ctx, stationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// ListBySession returns one identity's recent submissions for abuse scoring.
func (s *Service) ListBySession(ctx context.Context, sessionID string, window time.Duration) ([]*Submission, error) {
	since := requesttime.Now(ctx).Add(-window)
	subs, err := s.store.ListBySession(ctx, sessionID, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session activity")
	}
	return subs, nil
}

func initialStatus(photoKey *string) domain.SheetStatus {
	if photoKey == nil || *photoKey == "" {
		return domain.StatusMissing
	}
	return domain.StatusPending
}

func validateChecksum(total *int64) error {
	if total != nil && *total < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "checksum total must be a non-negative integer")
	}
	return nil
}
