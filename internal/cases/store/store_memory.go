package store

import (
	"context"
	"sort"
	"sync"

	"solidarlink/internal/cases/models"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
)

// entry pairs a case record with its own lock so Execute on one case never
// blocks operations on another.
type entry struct {
	mu sync.Mutex
	c  *models.Case
}

// InMemoryStore keeps cases in process memory. It favors clarity over
// performance and backs unit tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.CaseID]*entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.CaseID]*entry)}
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.entries[c.ID] = &entry{c: c.Clone()}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	e := s.entries[caseID]
	s.mu.RUnlock()
	if e == nil {
		return nil, sentinel.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.c.Clone(), nil
}

func (s *InMemoryStore) Execute(_ context.Context, caseID id.CaseID,
	validate func(c *models.Case) error,
	mutate func(c *models.Case)) (*models.Case, error) {
	s.mu.RLock()
	e := s.entries[caseID]
	s.mu.RUnlock()
	if e == nil {
		return nil, sentinel.ErrNotFound
	}

	// The per-entry lock serializes racing transitions on the same case:
	// the loser re-validates against the winner's committed state.
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.c.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	e.c = working
	return working.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, caseID id.CaseID, validate func(c *models.Case) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[caseID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if validate != nil {
		// Holding the registry write lock excludes Execute's entry lookup,
		// so the validated state is the state that gets deleted.
		e.mu.Lock()
		err := validate(e.c.Clone())
		e.mu.Unlock()
		if err != nil {
			return err
		}
	}
	delete(s.entries, caseID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Case, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var out []*models.Case
	for _, e := range entries {
		e.mu.Lock()
		c := e.c.Clone()
		e.mu.Unlock()
		if matches(c, filter) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) CountByStatus(ctx context.Context, status id.CaseStatus) (int64, error) {
	cases, err := s.List(ctx, models.Filter{Status: status})
	if err != nil {
		return 0, err
	}
	return int64(len(cases)), nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

func matches(c *models.Case, filter models.Filter) bool {
	if filter.Status != "" && c.Status != filter.Status {
		return false
	}
	if filter.Category != "" && c.Category != filter.Category {
		return false
	}
	if !filter.AuthorID.IsNil() && c.AuthorID != filter.AuthorID {
		return false
	}
	if !filter.VolunteerID.IsNil() {
		if c.VolunteerID == nil || *c.VolunteerID != filter.VolunteerID {
			return false
		}
	}
	if filter.Viewport != nil && !filter.Viewport.Contains(c.Latitude, c.Longitude) {
		return false
	}
	return true
}
