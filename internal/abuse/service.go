package abuse

import (
	"context"
	"log/slog"
	"time"

	"sheetwatch/internal/audit"
	"sheetwatch/internal/report"
	"sheetwatch/internal/submission"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/privacy"
)

// DefaultWindow is the activity window the scorer looks back over.
const DefaultWindow = time.Hour

// SubmissionActivity lists one identity's recent submissions.
type SubmissionActivity interface {
	ListBySession(ctx context.Context, sessionID string, window time.Duration) ([]*submission.Submission, error)
}

// ReportActivity lists one identity's recent incident and custody records.
type ReportActivity interface {
	SessionActivity(ctx context.Context, sessionID string, window time.Duration) ([]*report.IncidentReport, []*report.CustodyEvent, error)
}

// Service assembles an identity's activity window and scores it. Read-only
// and advisory: it never blocks anything itself.
type Service struct {
	submissions SubmissionActivity
	reports     ReportActivity
	auditor     audit.Publisher
	window      time.Duration
	logger      *slog.Logger
}

type Option func(*Service)

func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		s.window = window
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func NewService(submissions SubmissionActivity, reports ReportActivity, opts ...Option) *Service {
	svc := &Service{
		submissions: submissions,
		reports:     reports,
		window:      DefaultWindow,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Assess scores one identity's recent activity.
func (s *Service) Assess(ctx context.Context, identity string) (*Assessment, error) {
	if identity == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}

	subs, err := s.submissions.ListBySession(ctx, identity, s.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session submissions")
	}
	incidents, custody, err := s.reports.SessionActivity(ctx, identity, s.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session reports")
	}

	stations := make(map[int64]struct{}, len(subs))
	for _, sub := range subs {
		stations[sub.StationID] = struct{}{}
	}
	sealIncidents := 0
	for _, inc := range incidents {
		if inc.Type == report.IncidentSealMismatch {
			sealIncidents++
		}
	}

	assessment := Score(Activity{
		Submissions:     len(subs),
		UniqueStations:  len(stations),
		CustodyEvents:   len(custody),
		IncidentReports: len(incidents),
		SealIncidents:   sealIncidents,
	})
	assessment.IdentityHash = privacy.HashIdentity(identity)

	if assessment.Action != ActionNone {
		s.logger.WarnContext(ctx, "abusive activity pattern",
			"identity_hash", assessment.IdentityHash,
			"score", assessment.Score,
			"action", assessment.Action,
		)
		s.emitAudit(ctx, assessment)
	}
	return assessment, nil
}

func (s *Service) emitAudit(ctx context.Context, assessment *Assessment) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:       audit.EventAbuseFlagged,
		IdentityHash: assessment.IdentityHash,
		Details:      string(assessment.Action),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}
