package risk

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"sheetwatch/internal/reconcile"
	"sheetwatch/internal/report"
	"sheetwatch/internal/station"
	"sheetwatch/internal/submission"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/platform/sentinel"
)

// StationSource is the slice of the station store this service needs.
type StationSource interface {
	Get(ctx context.Context, id int64) (*station.Station, error)
	ListByConstituency(ctx context.Context, constituencyID int64) ([]*station.Station, error)
}

// SubmissionSource lists a station's submissions.
type SubmissionSource interface {
	ListByStation(ctx context.Context, stationID int64) ([]*submission.Submission, error)
}

// ReportSource lists a station's incident and custody records.
type ReportSource interface {
	ListIncidentsByStation(ctx context.Context, stationID int64) ([]*report.IncidentReport, error)
	ListCustodyByStation(ctx context.Context, stationID int64) ([]*report.CustodyEvent, error)
}

// TallySource lists a submission's reviewer tallies.
type TallySource interface {
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*reconcile.Tally, error)
}

// Service computes station and constituency risk on demand. Read-only: it
// never mutates the stores it consumes.
type Service struct {
	stations    StationSource
	submissions SubmissionSource
	reports     ReportSource
	tallies     TallySource
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(stations StationSource, submissions SubmissionSource, reports ReportSource, tallies TallySource, opts ...Option) *Service {
	svc := &Service{
		stations:    stations,
		submissions: submissions,
		reports:     reports,
		tallies:     tallies,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// StationRisk computes the risk view for one station.
func (s *Service) StationRisk(ctx context.Context, stationID int64) (*StationRisk, error) {
	if _, err := s.stations.Get(ctx, stationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "station not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve station")
	}

	input, err := s.gather(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return ScoreStation(*input), nil
}

// ConstituencyRisk aggregates station risk across one constituency.
func (s *Service) ConstituencyRisk(ctx context.Context, constituencyID int64) (*ConstituencyRisk, error) {
	stations, err := s.stations.ListByConstituency(ctx, constituencyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list constituency stations")
	}
	if len(stations) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "constituency has no registered stations")
	}

	risks := make([]*StationRisk, 0, len(stations))
	for _, st := range stations {
		input, err := s.gather(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		risks = append(risks, ScoreStation(*input))
	}
	return AggregateConstituency(constituencyID, risks), nil
}

func (s *Service) gather(ctx context.Context, stationID int64) (*StationInput, error) {
	subs, err := s.submissions.ListByStation(ctx, stationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	incidents, err := s.reports.ListIncidentsByStation(ctx, stationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list incident reports")
	}
	custody, err := s.reports.ListCustodyByStation(ctx, stationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list custody events")
	}

	tallies := make(map[string][]*reconcile.Tally, len(subs))
	for _, sub := range subs {
		list, err := s.tallies.ListBySubmission(ctx, sub.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tallies")
		}
		if len(list) > 0 {
			tallies[sub.ID.String()] = list
		}
	}

	return &StationInput{
		StationID:   stationID,
		Submissions: subs,
		Incidents:   incidents,
		Custody:     custody,
		Tallies:     tallies,
	}, nil
}
