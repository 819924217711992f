package ratelimit

import (
	"context"
	"time"
)

// BucketStore tracks per-identity request cadence with a sliding window and
// an explicit block state. Semantics shared by all implementations:
//
//   - a request inside an active block is denied without touching the window
//   - an expired block lifts and the window restarts empty
//   - a request that would exceed the limit starts a block and is denied
//   - otherwise the request is recorded and allowed
//
// The caller supplies now so checks are deterministic under test.
type BucketStore interface {
	Check(ctx context.Context, key string, now time.Time) (*Decision, error)

	// Reset clears the window and any block for a key.
	Reset(ctx context.Context, key string) error
}
