// Package cache provides the TTL stores backing the data access layer.
package cache

import "time"

// Store is a TTL cache holding opaque serialized payloads.
// Implementations must be safe for concurrent use, and every operation
// must observe a consistent view of the entries.
//
// An entry is valid strictly while now < expiresAt. Expiration is lazy:
// a Get of an expired entry reports a miss whether or not a background
// sweep has reclaimed it yet.
type Store interface {
	// Get returns the stored value, or found=false when the key is
	// absent or expired.
	Get(key string) (value []byte, found bool)
	// Set unconditionally overwrites the key with expiry now+ttl.
	// Non-positive ttls store nothing.
	Set(key string, value []byte, ttl time.Duration)
	// Remove evicts a single key. Removing an absent key is a no-op.
	Remove(key string)
	// RemoveMatching evicts every key with the given prefix and
	// returns the number of entries removed.
	RemoveMatching(prefix string) int
	// Clear drops every entry.
	Clear()
}
