package cache

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// TTLStore is backed by jellydator/ttlcache, whose janitor goroutine
// does the periodic sweep. Reads never extend entry lifetimes.
type TTLStore struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewTTLStore returns the store and a stop function releasing the
// janitor goroutine. Entries set with ttlcache.DefaultTTL expire after
// defaultTTL; Set always provides an explicit per-entry ttl.
func NewTTLStore(defaultTTL time.Duration) (*TTLStore, func()) {
	underlying := ttlcache.New(
		ttlcache.WithTTL[string, []byte](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go underlying.Start()

	return &TTLStore{cache: underlying}, underlying.Stop
}

func (s *TTLStore) Get(key string) ([]byte, bool) {
	item := s.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *TTLStore) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.cache.Set(key, value, ttl)
}

func (s *TTLStore) Remove(key string) {
	s.cache.Delete(key)
}

func (s *TTLStore) RemoveMatching(prefix string) int {
	removed := 0
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
			removed++
		}
	}
	return removed
}

func (s *TTLStore) Clear() {
	s.cache.DeleteAll()
}
