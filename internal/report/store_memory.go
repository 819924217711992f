package report

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore backs development and tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	incidents []*IncidentReport
	custody   []*CustodyEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AppendIncident(ctx context.Context, r *IncidentReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.incidents = append(s.incidents, &cp)
	return nil
}

func (s *InMemoryStore) AppendCustody(ctx context.Context, e *CustodyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.custody = append(s.custody, &cp)
	return nil
}

func (s *InMemoryStore) ListIncidentsByStation(ctx context.Context, stationID int64) ([]*IncidentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*IncidentReport
	for _, r := range s.incidents {
		if r.StationID == stationID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return incidentEarlier(out[i], out[j]) })
	return out, nil
}

func (s *InMemoryStore) ListCustodyByStation(ctx context.Context, stationID int64) ([]*CustodyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*CustodyEvent
	for _, e := range s.custody {
		if e.StationID == stationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return custodyEarlier(out[i], out[j]) })
	return out, nil
}

func (s *InMemoryStore) ListIncidentsBySession(ctx context.Context, sessionID string, since time.Time) ([]*IncidentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*IncidentReport
	for _, r := range s.incidents {
		if r.SessionID != nil && *r.SessionID == sessionID && !r.CreatedAt.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return incidentEarlier(out[i], out[j]) })
	return out, nil
}

func (s *InMemoryStore) ListCustodyBySession(ctx context.Context, sessionID string, since time.Time) ([]*CustodyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*CustodyEvent
	for _, e := range s.custody {
		if e.SessionID != nil && *e.SessionID == sessionID && !e.CreatedAt.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return custodyEarlier(out[i], out[j]) })
	return out, nil
}

func incidentEarlier(a, b *IncidentReport) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func custodyEarlier(a, b *CustodyEvent) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
