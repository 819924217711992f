package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryBucketStore is the single-instance sliding-window store. Production
// multi-instance deployments use the Redis store so all instances share one
// view of each identity.
type InMemoryBucketStore struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	blockFor time.Duration
	buckets  map[string]*bucket
}

type bucket struct {
	timestamps []time.Time
	blockUntil time.Time
}

func NewInMemoryBucketStore(limit int, window, blockFor time.Duration) *InMemoryBucketStore {
	return &InMemoryBucketStore{
		limit:    limit,
		window:   window,
		blockFor: blockFor,
		buckets:  make(map[string]*bucket),
	}
}

func (s *InMemoryBucketStore) Check(ctx context.Context, key string, now time.Time) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{}
		s.buckets[key] = b
	}

	if !b.blockUntil.IsZero() {
		if now.Before(b.blockUntil) {
			return &Decision{
				Allowed:    false,
				Limit:      s.limit,
				Remaining:  0,
				ResetAt:    b.blockUntil,
				Blocked:    true,
				BlockUntil: b.blockUntil,
			}, nil
		}
		// Block expired: the window restarts empty.
		b.blockUntil = time.Time{}
		b.timestamps = b.timestamps[:0]
	}

	b.cleanup(now, s.window)

	if len(b.timestamps) >= s.limit {
		b.blockUntil = now.Add(s.blockFor)
		return &Decision{
			Allowed:    false,
			Limit:      s.limit,
			Remaining:  0,
			ResetAt:    b.blockUntil,
			Blocked:    true,
			BlockUntil: b.blockUntil,
		}, nil
	}

	b.timestamps = append(b.timestamps, now)
	return &Decision{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - len(b.timestamps),
		ResetAt:   b.timestamps[0].Add(s.window),
	}, nil
}

func (s *InMemoryBucketStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

func (b *bucket) cleanup(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(b.timestamps); i++ {
		if b.timestamps[i].After(cutoff) {
			break
		}
	}
	b.timestamps = b.timestamps[i:]
}
