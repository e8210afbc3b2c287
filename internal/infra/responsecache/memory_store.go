package responsecache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

type memoryEntry struct {
	payload   advisor.CacheEntry
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of advisor.Store for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements advisor.Store.
func (s *MemoryStore) Get(_ context.Context, key string) (advisor.CacheEntry, bool, error) {
	if key == "" {
		return advisor.CacheEntry{}, false, nil
	}
	s.mu.RLock()
	record, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return advisor.CacheEntry{}, false, nil
	}
	if s.expired(record.expiresAt) {
		s.mu.Lock()
		// A Put may have replaced the entry since the read lock was released.
		if current, ok := s.entries[key]; ok && s.expired(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return advisor.CacheEntry{}, false, nil
	}
	return record.payload, true, nil
}

// Put upserts the entry. The process keeps it for at least ttl; a zero ttl
// keeps it until overwritten.
func (s *MemoryStore) Put(_ context.Context, entry advisor.CacheEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.entries[entry.Key] = memoryEntry{payload: entry, expiresAt: exp}
	return nil
}

// Len reports how many entries are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ advisor.Store = (*MemoryStore)(nil)
