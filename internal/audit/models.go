package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture security- and
// integrity-relevant actions. Keep it transport-agnostic so stores and sinks
// can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`

	SubmissionID string `json:"submission_id,omitempty"`
	StationID    int64  `json:"station_id,omitempty"`
	SheetType    string `json:"sheet_type,omitempty"`
	ReviewerID   string `json:"reviewer_id,omitempty"`

	// IdentityHash is a privacy-preserving digest of the acting session or
	// client key; raw identities never reach the audit trail.
	IdentityHash string `json:"identity_hash,omitempty"`

	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Common audit actions.
const (
	EventStatusChanged    = "status_changed"
	EventRateLimitBlocked = "rate_limit_blocked"
	EventAbuseFlagged     = "abuse_flagged"
)

// Publisher is the write side of the audit trail.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists events. Append-only; entries are never mutated or deleted.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubmission(ctx context.Context, submissionID string) ([]Event, error)
}
