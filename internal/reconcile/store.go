package reconcile

import (
	"context"

	"github.com/google/uuid"
)

// TallyStore persists reviewer transcriptions. Append-only.
type TallyStore interface {
	Append(ctx context.Context, t *Tally) error

	// ListBySubmission returns a submission's tallies ordered by (created_at, id).
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*Tally, error)

	// List returns all tallies ordered by (created_at, id).
	List(ctx context.Context) ([]*Tally, error)
}

// LogStore persists verification log entries. Append-only.
type LogStore interface {
	Append(ctx context.Context, e *VerificationLogEntry) error

	// ListBySubmission returns a submission's log entries ordered by (created_at, id).
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*VerificationLogEntry, error)
}
