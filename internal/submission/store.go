package submission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sheetwatch/pkg/domain"
)

// Store owns the canonical submission rows. Status fields are mutated only
// through UpdateStatus, which the reconciliation engine alone may call.
// Implementations return sentinel errors from pkg/platform/sentinel.
type Store interface {
	// Insert creates a submission row.
	Insert(ctx context.Context, sub *Submission) error

	// Get returns one submission by id.
	Get(ctx context.Context, id uuid.UUID) (*Submission, error)

	// List returns all submissions ordered by (created_at, id).
	List(ctx context.Context) ([]*Submission, error)

	// ListByStation returns a station's submissions ordered by (created_at, id).
	ListByStation(ctx context.Context, stationID int64) ([]*Submission, error)

	// ListBySession returns one session's submissions created at or after
	// the cutoff, for abuse scoring.
	ListBySession(ctx context.Context, sessionID string, since time.Time) ([]*Submission, error)

	// NextPending returns the oldest submission whose sheet has the given
	// status, ordered by (created_at, id). Returns ErrNotFound when the
	// queue is empty.
	NextPending(ctx context.Context, sheet domain.SheetType, status domain.SheetStatus) (*Submission, error)

	// UpdateStatus sets one sheet's status iff the stored version still
	// equals expectedVersion, then bumps the version. Returns ErrConflict
	// when another writer raced this one, ErrNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id uuid.UUID, sheet domain.SheetType, status domain.SheetStatus, expectedVersion int64) error
}
