// Package invalidation maps mutation events to the cache key families
// they make stale.
package invalidation

import (
	"context"
	"sync"

	"github.com/festivo/backstop/internal/logging"
)

type EventKind string

const (
	Created EventKind = "created"
	Updated EventKind = "updated"
	Deleted EventKind = "deleted"
)

// Event describes one successful mutation against the backend.
type Event struct {
	Tenant       string
	ResourceType string
	ResourceID   string
	Kind         EventKind
}

// Rule derives eviction prefixes from a mutation event. Patterns
// receives the event's tenant and resource id and returns the key
// prefixes to evict. Rules should be conservative: evicting a broader
// key family is always safe, leaving a stale derived value is not.
type Rule struct {
	// Kinds restricts the rule to certain event kinds. Empty means
	// the rule fires for every kind.
	Kinds    []EventKind
	Patterns func(tenant, resourceID string) []string
}

func (rule Rule) matches(kind EventKind) bool {
	if len(rule.Kinds) == 0 {
		return true
	}
	for _, k := range rule.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Evictor removes every cache entry under a key prefix and returns the
// eviction count. The repository layer implements it on top of the
// coalescer and the store.
type Evictor interface {
	Evict(ctx context.Context, prefix string) int
}

// Registry holds the invalidation rules. Rules are registered once at
// startup and are immutable afterwards; Apply is safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	rules   map[string][]Rule
	evictor Evictor
}

func NewRegistry(evictor Evictor) *Registry {
	return &Registry{
		rules:   make(map[string][]Rule),
		evictor: evictor,
	}
}

// Register adds a rule for the resource type. Call before serving
// traffic.
func (r *Registry) Register(resourceType string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[resourceType] = append(r.rules[resourceType], rule)
}

// Apply evicts every key family the registered rules derive from the
// event and returns the number of evicted entries. Events for resource
// types without rules are a no-op; applying the same event twice evicts
// nothing the second time.
func (r *Registry) Apply(ctx context.Context, event Event) int {
	r.mu.RLock()
	rules := r.rules[event.ResourceType]
	r.mu.RUnlock()

	if len(rules) == 0 {
		logging.FromContext(ctx).Warn(
			"No invalidation rules for resource type",
			"resourceType", event.ResourceType,
		)
		return 0
	}

	// Multiple rules may derive the same prefix; evicting it once is
	// enough.
	seen := make(map[string]struct{})
	evicted := 0
	for _, rule := range rules {
		if !rule.matches(event.Kind) {
			continue
		}
		for _, prefix := range rule.Patterns(event.Tenant, event.ResourceID) {
			if _, done := seen[prefix]; done {
				continue
			}
			seen[prefix] = struct{}{}
			evicted += r.evictor.Evict(ctx, prefix)
		}
	}

	logging.FromContext(ctx).Debug(
		"Applied invalidation event",
		"resourceType", event.ResourceType,
		"kind", string(event.Kind),
		"evicted", evicted,
	)
	return evicted
}
