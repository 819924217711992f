package reconcile

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryTallyStore backs development and tests.
type InMemoryTallyStore struct {
	mu      sync.RWMutex
	tallies []*Tally
}

func NewInMemoryTallyStore() *InMemoryTallyStore {
	return &InMemoryTallyStore{}
}

func (s *InMemoryTallyStore) Append(ctx context.Context, t *Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.ScoreMap = maps.Clone(t.ScoreMap)
	s.tallies = append(s.tallies, &cp)
	return nil
}

func (s *InMemoryTallyStore) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Tally
	for _, t := range s.tallies {
		if t.SubmissionID == submissionID {
			cp := *t
			cp.ScoreMap = maps.Clone(t.ScoreMap)
			out = append(out, &cp)
		}
	}
	sortTallies(out)
	return out, nil
}

func (s *InMemoryTallyStore) List(ctx context.Context) ([]*Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Tally, 0, len(s.tallies))
	for _, t := range s.tallies {
		cp := *t
		cp.ScoreMap = maps.Clone(t.ScoreMap)
		out = append(out, &cp)
	}
	sortTallies(out)
	return out, nil
}

func sortTallies(tallies []*Tally) {
	sort.Slice(tallies, func(i, j int) bool {
		if !tallies[i].CreatedAt.Equal(tallies[j].CreatedAt) {
			return tallies[i].CreatedAt.Before(tallies[j].CreatedAt)
		}
		return tallies[i].ID.String() < tallies[j].ID.String()
	})
}

// InMemoryLogStore backs development and tests.
type InMemoryLogStore struct {
	mu      sync.RWMutex
	entries []*VerificationLogEntry
}

func NewInMemoryLogStore() *InMemoryLogStore {
	return &InMemoryLogStore{}
}

func (s *InMemoryLogStore) Append(ctx context.Context, e *VerificationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryLogStore) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*VerificationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*VerificationLogEntry
	for _, e := range s.entries {
		if e.SubmissionID == submissionID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
