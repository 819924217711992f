package reconcile

import (
	"time"

	"github.com/google/uuid"

	"sheetwatch/pkg/domain"
)

// Score map keys with reserved meaning. Everything else in a score map is a
// candidate or party key.
const (
	ScoreKeyTotalValid = "total_valid"
	ScoreKeyTotal      = "total"
)

// Tally is one reviewer transcription of one sheet of one submission.
// Immutable once written; a corrected transcription is a new tally and the
// engine always acts on the newest one.
type Tally struct {
	ID           uuid.UUID        `json:"id"`
	SubmissionID uuid.UUID        `json:"submission_id"`
	SheetType    domain.SheetType `json:"sheet_type"`
	ReviewerID   *string          `json:"reviewer_id,omitempty"`

	// ScoreMap maps candidate/party keys to vote counts, plus the
	// distinguished total_valid entry.
	ScoreMap map[string]int64 `json:"score_map"`

	// AutoVerified records whether the transcribed total matched the citizen
	// checksum exactly at the time this tally was reconciled.
	AutoVerified bool `json:"auto_verified"`

	CreatedAt time.Time `json:"created_at"`
}

// Total extracts the transcribed total: total_valid with total as fallback.
func (t *Tally) Total() (int64, bool) {
	if v, ok := t.ScoreMap[ScoreKeyTotalValid]; ok {
		return v, true
	}
	if v, ok := t.ScoreMap[ScoreKeyTotal]; ok {
		return v, true
	}
	return 0, false
}

// LogDetails captures the reconciliation facts behind one decision.
type LogDetails struct {
	ComputedTotal int64  `json:"computed_total"`
	Checksum      *int64 `json:"checksum,omitempty"`
	ChecksumMatch bool   `json:"checksum_match"`
	Note          string `json:"note,omitempty"`
}

// VerificationLogEntry is the append-only audit record of one
// status-changing decision. Never mutated or deleted.
type VerificationLogEntry struct {
	ID           uuid.UUID        `json:"id"`
	SubmissionID uuid.UUID        `json:"submission_id"`
	ReviewerID   *string          `json:"reviewer_id,omitempty"`
	SheetType    domain.SheetType `json:"sheet_type"`
	Action       domain.LogAction `json:"action"`
	Details      LogDetails       `json:"details"`
	CreatedAt    time.Time        `json:"created_at"`
}
