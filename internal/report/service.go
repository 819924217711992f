package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sheetwatch/internal/station"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/platform/sentinel"
	"sheetwatch/pkg/requesttime"
)

// StationResolver is the slice of the station store this service needs.
type StationResolver interface {
	Get(ctx context.Context, id int64) (*station.Station, error)
}

// IncidentRequest carries a validated incident report payload.
type IncidentRequest struct {
	StationID int64
	Type      IncidentType
	Note      string
	MediaKeys []string
	SessionID *string
}

// CustodyRequest carries a validated custody event payload.
type CustodyRequest struct {
	StationID int64
	Type      CustodyEventType
	Note      string
	MediaKeys []string
	SessionID *string
}

// Service owns citizen incident and custody reporting. Records are write-once
// observational inputs for the risk and abuse scorers.
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

// ReportIncident records one incident report against an existing station.
func (s *Service) ReportIncident(ctx context.Context, req IncidentRequest) (*IncidentReport, error) {
	if err := s.resolveStation(ctx, req.StationID); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid incident type")
	}

	incident := &IncidentReport{
		ID:        uuid.New(),
		StationID: req.StationID,
		Type:      req.Type,
		Note:      req.Note,
		MediaKeys: req.MediaKeys,
		SessionID: req.SessionID,
		CreatedAt: requesttime.Now(ctx).UTC(),
	}
	if err := s.store.AppendIncident(ctx, incident); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record incident report")
	}

	s.logger.InfoContext(ctx, "incident reported",
		"incident_id", incident.ID,
		"station_id", incident.StationID,
		"type", incident.Type,
	)
	return incident, nil
}

// ReportCustody records one custody event against an existing station.
func (s *Service) ReportCustody(ctx context.Context, req CustodyRequest) (*CustodyEvent, error) {
	if err := s.resolveStation(ctx, req.StationID); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid custody event type")
	}

	event := &CustodyEvent{
		ID:        uuid.New(),
		StationID: req.StationID,
		Type:      req.Type,
		Note:      req.Note,
		MediaKeys: req.MediaKeys,
		SessionID: req.SessionID,
		CreatedAt: requesttime.Now(ctx).UTC(),
	}
	if err := s.store.AppendCustody(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record custody event")
	}

	s.logger.InfoContext(ctx, "custody event reported",
		"custody_id", event.ID,
		"station_id", event.StationID,
		"type", event.Type,
	)
	return event, nil
}

// IncidentsByStation returns a station's incident reports in stable order.
func (s *Service) IncidentsByStation(ctx context.Context, stationID int64) ([]*IncidentReport, error) {
	incidents, err := s.store.ListIncidentsByStation(ctx, stationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list incident reports")
	}
	return incidents, nil
}

// CustodyByStation returns a station's custody events in stable order.
func (s *Service) CustodyByStation(ctx context.Context, stationID int64) ([]*CustodyEvent, error) {
	events, err := s.store.ListCustodyByStation(ctx, stationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list custody events")
	}
	return events, nil
}

// SessionActivity returns one identity's recent reports for abuse scoring.
func (s *Service) SessionActivity(ctx context.Context, sessionID string, window time.Duration) ([]*IncidentReport, []*CustodyEvent, error) {
	since := requesttime.Now(ctx).Add(-window)
	incidents, err := s.store.ListIncidentsBySession(ctx, sessionID, since)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session incidents")
	}
	custody, err := s.store.ListCustodyBySession(ctx, sessionID, since)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session custody events")
	}
	return incidents, custody, nil
}

func (s *Service) resolveStation(ctx context.Context, stationID int64) error {
	if stationID <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "station_id is required")
	}
	if _, err := s.stations.Get(ctx, stationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "station not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve station")
	}
	return nil
}
