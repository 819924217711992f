package submission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheetwatch/pkg/domain"
	"sheetwatch/pkg/platform/sentinel"
)

// InMemoryStore is the single-instance submission store used in development
// and tests. The mutex also provides the per-row serialization that the
// PostgreSQL store gets from its version CAS.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[uuid.UUID]*Submission)}
}

func (s *InMemoryStore) Insert(ctx context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[sub.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *sub
	s.rows[sub.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Submission, 0, len(s.rows))
	for _, sub := range s.rows {
		cp := *sub
		out = append(out, &cp)
	}
	sortSubmissions(out)
	return out, nil
}

func (s *InMemoryStore) ListByStation(ctx context.Context, stationID int64) ([]*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Submission
	for _, sub := range s.rows {
		if sub.StationID == stationID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func (s *InMemoryStore) ListBySession(ctx context.Context, sessionID string, since time.Time) ([]*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Submission
	for _, sub := range s.rows {
		if sub.SessionID != nil && *sub.SessionID == sessionID && !sub.CreatedAt.Before(since) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func (s *InMemoryStore) NextPending(ctx context.Context, sheet domain.SheetType, status domain.SheetStatus) (*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest *Submission
	for _, sub := range s.rows {
		if sub.Status(sheet) != status {
			continue
		}
		if oldest == nil || earlier(sub, oldest) {
			oldest = sub
		}
	}
	if oldest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (s *InMemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, sheet domain.SheetType, status domain.SheetStatus, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if sub.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	if sheet == domain.SheetPartyList {
		sub.StatusPartyList = status
	} else {
		sub.StatusConstituency = status
	}
	sub.Version++
	return nil
}

// earlier orders by created_at with submission id as the stable tie-break.
func earlier(a, b *Submission) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func sortSubmissions(subs []*Submission) {
	sort.Slice(subs, func(i, j int) bool { return earlier(subs[i], subs[j]) })
}
