package user

import (
	"context"
	"sort"
	"strings"
	"sync"

	"solidarlink/internal/auth/models"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
)

// InMemoryStore keeps users in process memory for tests and local
// development. Email lookups are case-insensitive.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, u *models.User) error {
	key := emailKey(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[u.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	s.byID[u.ID] = u.Clone()
	s.byEmail[key] = u.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[userID].Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !strings.EqualFold(current.Email, u.Email) {
		if _, taken := s.byEmail[emailKey(u.Email)]; taken {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, emailKey(current.Email))
		s.byEmail[emailKey(u.Email)] = u.ID
	}
	s.byID[u.ID] = u.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, emailKey(u.Email))
	delete(s.byID, userID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.User
	for _, u := range s.byID {
		if matches(u, filter) {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func matches(u *models.User, filter models.Filter) bool {
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Validated != nil && u.Validated != *filter.Validated {
		return false
	}
	if filter.Banned != nil && u.Banned != *filter.Banned {
		return false
	}
	return true
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
