package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local key/value store with the redis Get/Set
// signatures. It is used when redis is disabled.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the value or redis.Nil when absent or expired.
func (s *MemoryStore) Get(ctx context.Context, key string) *redis.StringCmd {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		if ok {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		cmd := redis.NewStringCmd(ctx, "get", key)
		cmd.SetErr(redis.Nil)
		return cmd
	}
	return redis.NewStringResult(e.value, nil)
}

// Set stores value. A zero expiration keeps it until overwritten.
func (s *MemoryStore) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	e := memoryEntry{value: fmt.Sprint(value)}
	if expiration > 0 {
		e.expiresAt = s.now().Add(expiration)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return redis.NewStatusResult("OK", nil)
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
