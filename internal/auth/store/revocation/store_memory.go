package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryTRL is an in-process token revocation list for tests and single
// instance deployments. Expired entries are pruned lazily on lookup and
// opportunistically on writes.
type MemoryTRL struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   Clock
}

// Clock abstracts time.Now for testability.
type Clock func() time.Time

// MemoryTRLOption configures a MemoryTRL instance.
type MemoryTRLOption func(*MemoryTRL)

// WithMemoryClock sets the clock function for testability.
func WithMemoryClock(clock Clock) MemoryTRLOption {
	return func(trl *MemoryTRL) {
		if clock != nil {
			trl.clock = clock
		}
	}
}

func NewMemoryTRL(opts ...MemoryTRLOption) *MemoryTRL {
	trl := &MemoryTRL{
		entries: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(trl)
		}
	}
	return trl
}

func (t *MemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[jti] = now.Add(ttl)
	for key, expiresAt := range t.entries {
		if now.After(expiresAt) {
			delete(t.entries, key)
		}
	}
	return nil
}

func (t *MemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.RLock()
	expiresAt, ok := t.entries[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return !t.clock().After(expiresAt), nil
}
