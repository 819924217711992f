package domain

// SheetStatus is the verification lifecycle of one sheet of one submission.
//
// missing -> pending -> {verified | rejected | disputed}
//
// disputed is not terminal: a senior reviewer action may still move it to
// verified or rejected through the same transition API.
type SheetStatus string

const (
	StatusMissing  SheetStatus = "missing"
	StatusPending  SheetStatus = "pending"
	StatusVerified SheetStatus = "verified"
	StatusRejected SheetStatus = "rejected"
	StatusDisputed SheetStatus = "disputed"
)

// IsValid checks if the status is one of the supported enum values.
func (s SheetStatus) IsValid() bool {
	switch s {
	case StatusMissing, StatusPending, StatusVerified, StatusRejected, StatusDisputed:
		return true
	}
	return false
}

func (s SheetStatus) String() string {
	return string(s)
}

// ReviewAction is an explicit reviewer decision accompanying a tally. When
// present it overrides the checksum auto-verification outcome.
type ReviewAction string

const (
	ActionVerify         ReviewAction = "verify"
	ActionRejectQuality  ReviewAction = "reject_quality"
	ActionRejectMismatch ReviewAction = "reject_mismatch"
	ActionDispute        ReviewAction = "dispute"
)

// IsValid checks if the review action is one of the supported enum values.
func (a ReviewAction) IsValid() bool {
	switch a {
	case ActionVerify, ActionRejectQuality, ActionRejectMismatch, ActionDispute:
		return true
	}
	return false
}

// LogAction classifies verification log entries.
type LogAction string

const (
	LogAutoVerified   LogAction = "auto_verified"
	LogManualVerify   LogAction = "manual_verify"
	LogRejectQuality  LogAction = "reject_quality"
	LogRejectMismatch LogAction = "reject_mismatch"
	LogDispute        LogAction = "dispute"
	// LogPendingReview records a tally that neither matched the checksum nor
	// carried an explicit reviewer action; the sheet stays in manual review.
	LogPendingReview LogAction = "pending_review"
)
