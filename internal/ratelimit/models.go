package ratelimit

import "time"

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time

	// Blocked marks an identity inside an active block; BlockUntil is when
	// the block lifts and the window restarts empty.
	Blocked    bool
	BlockUntil time.Time
}

// RetryAfter returns the whole seconds a blocked caller should wait,
// relative to now.
func (d *Decision) RetryAfter(now time.Time) int {
	until := d.ResetAt
	if d.Blocked {
		until = d.BlockUntil
	}
	secs := int(until.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
