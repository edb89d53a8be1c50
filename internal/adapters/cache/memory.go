package cache

import (
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore keeps entries in a plain map guarded by a single mutex.
// The clock is injected so expiry behavior can be tested without
// sleeping.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	nowFunc func() time.Time
}

func NewMemoryStore(nowFunc func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowFunc: nowFunc,
	}
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.nowFunc().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := s.nowFunc()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

func (s *MemoryStore) RemoveMatching(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
}

// Sweep reclaims expired entries and returns the number removed. Only
// needed to bound memory use: Get treats expired entries as absent
// either way.
func (s *MemoryStore) Sweep() int {
	now := s.nowFunc()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of held entries, including expired ones not
// yet reclaimed.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
