package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sheetwatch/internal/audit"
	"sheetwatch/internal/submission"
	"sheetwatch/pkg/domain"
	dErrors "sheetwatch/pkg/domain-errors"
	"sheetwatch/pkg/platform/sentinel"
	"sheetwatch/pkg/requesttime"
)

var tracer = otel.Tracer("sheetwatch/internal/reconcile")

// Request is a validated reviewer tally submission.
type Request struct {
	SubmissionID uuid.UUID
	ReviewerID   *string
	SheetType    domain.SheetType
	ScoreMap     map[string]int64
	// Action, when present, overrides the checksum outcome.
	Action *domain.ReviewAction
	Note   string
}

// Result reports the reconciliation decision.
type Result struct {
	Tally        *Tally
	Status       domain.SheetStatus
	AutoVerified bool
}

// Service is the reconciliation engine: it accepts reviewer tallies,
// compares them against citizen checksums, and drives each sheet's status
// machine. It is the only writer of submission statuses after creation.
type Service struct {
	submissions submission.Store
	tallies     TallyStore
	log         LogStore
	auditor     audit.Publisher
	logger      *slog.Logger
}

type Option func(*Service)

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

func NewService(submissions submission.Store, tallies TallyStore, logStore LogStore, opts ...Option) *Service {
	svc := &Service{
		submissions: submissions,
		tallies:     tallies,
		log:         logStore,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Reconcile runs the transition rule for one tally:
//
//  1. extract the transcribed total (total_valid, falling back to total)
//  2. compare it against the citizen checksum for that sheet (exact integer
//     equality, no tolerance band)
//  3. persist the tally with the match recorded
//  4. resolve the final status, letting an explicit reviewer action override
//  5. update the sheet status under the version read in step 2 and append a
//     verification log entry
//
// A concurrent reviewer acting on the same sheet loses the version check and
// gets a retryable conflict; the winner's tally and status stand.
func (s *Service) Reconcile(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "reconcile.decide", trace.WithAttributes(
		attribute.String("submission_id", req.SubmissionID.String()),
		attribute.String("sheet_type", req.SheetType.String()),
	))
	defer span.End()

	result, err := s.reconcile(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("status", result.Status.String()),
		attribute.Bool("auto_verified", result.AutoVerified),
	)
	return result, nil
}

func (s *Service) reconcile(ctx context.Context, req Request) (*Result, error) {
	if !req.SheetType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid sheet_type")
	}
	if req.Action != nil && !req.Action.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid action")
	}

	// Validate the score map before anything is persisted: a malformed tally
	// must leave no trace.
	total, err := extractTotal(req.ScoreMap)
	if err != nil {
		return nil, err
	}

	sub, err := s.submissions.Get(ctx, req.SubmissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}

	// A missing sheet has no photo behind it; accepting a tally would move
	// the status while the photo key stays null. Reject before anything is
	// persisted.
	if sub.Status(req.SheetType) == domain.StatusMissing {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sheet has no photo, nothing to reconcile")
	}

	checksum := sub.Checksum(req.SheetType)
	autoVerified := checksum != nil && *checksum == total

	now := requesttime.Now(ctx).UTC()
	tally := &Tally{
		ID:           uuid.New(),
		SubmissionID: sub.ID,
		SheetType:    req.SheetType,
		ReviewerID:   req.ReviewerID,
		ScoreMap:     req.ScoreMap,
		AutoVerified: autoVerified,
		CreatedAt:    now,
	}
	if err := s.tallies.Append(ctx, tally); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist tally")
	}

	status, logAction := resolve(req.Action, autoVerified)

	err = s.submissions.UpdateStatus(ctx, sub.ID, req.SheetType, status, sub.Version)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// The tally above stays on record as evidence; only the status
			// decision is rejected. Callers re-read and retry.
			return nil, dErrors.New(dErrors.CodeConflict, "submission status changed concurrently, retry")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update submission status")
	}

	entry := &VerificationLogEntry{
		ID:           uuid.New(),
		SubmissionID: sub.ID,
		ReviewerID:   req.ReviewerID,
		SheetType:    req.SheetType,
		Action:       logAction,
		Details: LogDetails{
			ComputedTotal: total,
			Checksum:      checksum,
			ChecksumMatch: autoVerified,
			Note:          req.Note,
		},
		CreatedAt: now,
	}
	if err := s.log.Append(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append verification log entry")
	}

	s.emitAudit(ctx, sub.StationID, entry)

	s.logger.InfoContext(ctx, "sheet reconciled",
		"submission_id", sub.ID,
		"sheet_type", req.SheetType,
		"status", status,
		"auto_verified", autoVerified,
		"log_action", logAction,
	)

	return &Result{Tally: tally, Status: status, AutoVerified: autoVerified}, nil
}

// TalliesForSubmission returns a submission's transcription history.
func (s *Service) TalliesForSubmission(ctx context.Context, submissionID uuid.UUID) ([]*Tally, error) {
	tallies, err := s.tallies.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tallies")
	}
	return tallies, nil
}

// LogForSubmission returns a submission's verification audit trail.
func (s *Service) LogForSubmission(ctx context.Context, submissionID uuid.UUID) ([]*VerificationLogEntry, error) {
	entries, err := s.log.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification log")
	}
	return entries, nil
}

func (s *Service) emitAudit(ctx context.Context, stationID int64, entry *VerificationLogEntry) {
	if s.auditor == nil {
		return
	}
	reviewerID := ""
	if entry.ReviewerID != nil {
		reviewerID = *entry.ReviewerID
	}
	event := audit.Event{
		Timestamp:    entry.CreatedAt,
		Action:       audit.EventStatusChanged,
		SubmissionID: entry.SubmissionID.String(),
		StationID:    stationID,
		SheetType:    entry.SheetType.String(),
		ReviewerID:   reviewerID,
		Details:      string(entry.Action),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		// Audit delivery is best-effort for this path; the verification log
		// row is the system of record.
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func extractTotal(scoreMap map[string]int64) (int64, error) {
	if scoreMap == nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "score_map is required")
	}
	if v, ok := scoreMap[ScoreKeyTotalValid]; ok {
		if v < 0 {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "score_map.total_valid must be a non-negative integer")
		}
		return v, nil
	}
	if v, ok := scoreMap[ScoreKeyTotal]; ok {
		if v < 0 {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "score_map.total must be a non-negative integer")
		}
		return v, nil
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "score_map.total_valid is required")
}

// resolve maps an explicit reviewer action (or its absence) plus the
// checksum outcome to the final sheet status and log action.
func resolve(action *domain.ReviewAction, autoVerified bool) (domain.SheetStatus, domain.LogAction) {
	if action != nil {
		switch *action {
		case domain.ActionVerify:
			return domain.StatusVerified, domain.LogManualVerify
		case domain.ActionRejectQuality:
			return domain.StatusRejected, domain.LogRejectQuality
		case domain.ActionRejectMismatch:
			return domain.StatusRejected, domain.LogRejectMismatch
		case domain.ActionDispute:
			return domain.StatusDisputed, domain.LogDispute
		}
	}
	if autoVerified {
		return domain.StatusVerified, domain.LogAutoVerified
	}
	return domain.StatusPending, domain.LogPendingReview
}
