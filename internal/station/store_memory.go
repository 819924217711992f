package station

import (
	"context"
	"sort"
	"sync"

	"sheetwatch/pkg/platform/sentinel"
)

// InMemoryStore is the single-instance Station store. Production deployments
// use the PostgreSQL store; this one backs development and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[int64]*Station
	nextID   int64
	naturals map[naturalKey]int64
}

type naturalKey struct {
	constituencyID int64
	subdistrictID  int64 // 0 when null
	stationNumber  int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[int64]*Station),
		naturals: make(map[naturalKey]int64),
		nextID:   1,
	}
}

func keyOf(constituencyID int64, subdistrictID *int64, stationNumber int) naturalKey {
	k := naturalKey{constituencyID: constituencyID, stationNumber: stationNumber}
	if subdistrictID != nil {
		k.subdistrictID = *subdistrictID
	}
	return k
}

func (s *InMemoryStore) Get(ctx context.Context, id int64) (*Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Station, 0, len(s.byID))
	for _, st := range s.byID {
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListByConstituency(ctx context.Context, constituencyID int64) ([]*Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Station
	for _, st := range s.byID {
		if st.ConstituencyID == constituencyID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) FindByNaturalKey(ctx context.Context, constituencyID int64, subdistrictID *int64, stationNumber int) (*Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.naturals[keyOf(constituencyID, subdistrictID, stationNumber)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStore) Insert(ctx context.Context, st *Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyOf(st.ConstituencyID, st.SubdistrictID, st.StationNumber)
	if _, exists := s.naturals[key]; exists {
		return sentinel.ErrConflict
	}
	st.ID = s.nextID
	s.nextID++
	cp := *st
	s.byID[st.ID] = &cp
	s.naturals[key] = st.ID
	return nil
}
