package reports

import (
	"context"
	"sort"
	"sync"

	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
)

// InMemoryStore keeps reports in process memory for tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[id.ReportID]*Report)}
}

func (s *InMemoryStore) Create(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.reports[r.ID] = r.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reportID id.ReportID) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, onlyOpen bool) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Report, 0, len(s.reports))
	for _, r := range s.reports {
		if onlyOpen && r.Closed {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Close(_ context.Context, reportID id.ReportID) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r.Closed = true
	return r.Clone(), nil
}
