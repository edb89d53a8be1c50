// Package repository is the facade callers use to read and mutate
// tenant resources. It composes the cache store, the coalescer, the
// retry executor and the invalidation registry into cache-aware Fetch
// and Mutate operations.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/festivo/backstop/internal/adapters/cache"
	"github.com/festivo/backstop/internal/coalescing"
	e "github.com/festivo/backstop/internal/errors"
	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
	"github.com/festivo/backstop/internal/retry"
)

// Layer owns the caching machinery for one process. Values cross the
// store as JSON, so one store and one coalescer serve every resource
// type.
type Layer struct {
	store       cache.Store
	coalescer   *coalescing.Coalescer[[]byte]
	executor    *retry.Executor
	registry    *invalidation.Registry
	observer    Observer
	readPolicy  retry.Policy
	writePolicy retry.Policy
}

func New(
	store cache.Store,
	executor *retry.Executor,
	readPolicy retry.Policy,
	writePolicy retry.Policy,
	observer Observer,
) *Layer {
	if observer == nil {
		observer = NoopObserver{}
	}
	layer := &Layer{
		store:       store,
		coalescer:   coalescing.New[[]byte](),
		executor:    executor,
		observer:    observer,
		readPolicy:  readPolicy,
		writePolicy: writePolicy,
	}
	layer.registry = invalidation.NewRegistry(layer)
	return layer
}

// Rules exposes the invalidation registry for startup registration.
func (l *Layer) Rules() *invalidation.Registry {
	return l.registry
}

// Evict detaches in-flight fetches under the prefix before removing the
// cached entries, so a racing fetch cannot re-publish a value that was
// just invalidated.
func (l *Layer) Evict(ctx context.Context, prefix string) int {
	abandoned := l.coalescer.Abandon(prefix)
	removed := l.store.RemoveMatching(prefix)
	if abandoned > 0 {
		logging.FromContext(ctx).Debug(
			"Abandoned in-flight fetches during eviction",
			"prefix", prefix,
			"abandoned", abandoned,
		)
	}
	return removed
}

var _ invalidation.Evictor = (*Layer)(nil)

// InvalidateAll drops everything the tenant has in the cache and
// cancels its pending fetches. Logout / tenant-switch hook.
func (l *Layer) InvalidateAll(ctx context.Context, tenant string) int {
	prefix := keys.TenantPrefix(tenant)
	l.coalescer.Cancel(prefix)
	removed := l.store.RemoveMatching(prefix)

	l.observer.TenantInvalidated(ctx, removed)
	logging.FromContext(ctx).Info("Invalidated tenant cache", "evicted", removed)
	return removed
}

// FetchRequest describes one cache-aware read. Tenant must already be
// canonical (keys.NormalizeTenantID).
type FetchRequest[V any] struct {
	Tenant       string
	ResourceType string
	// Qualifier distinguishes queries within the resource type, e.g. a
	// rendered filter or a resource id.
	Qualifier string
	TTL       time.Duration
	// Transport performs the network read, normally a thin wrapper
	// around the upstream adapter.
	Transport func(ctx context.Context) (V, error)
}

// Fetch serves the request from cache when fresh, otherwise coalesces
// concurrent misses for the same key into one retried network call and
// caches the produced value before anyone observes it.
func Fetch[V any](ctx context.Context, layer *Layer, request FetchRequest[V]) (V, error) {
	var empty V

	key := keys.ForQuery(request.Tenant, request.ResourceType, request.Qualifier)

	if raw, found := layer.store.Get(key); found {
		var value V
		if err := json.Unmarshal(raw, &value); err != nil {
			// A corrupt entry means something wrote garbage under our
			// key. Drop it and treat the read as a miss.
			layer.store.Remove(key)
			reporting.Report(ctx, fmt.Errorf("%w: corrupt cache entry for key %q: %w", e.ErrCacheConsistency, key, err))
		} else {
			layer.observer.CacheHit(ctx, request.ResourceType)
			logging.FromContext(ctx).Debug("Fetching resource", "resourceType", request.ResourceType, "cache", "hit")
			return value, nil
		}
	}

	layer.observer.CacheMiss(ctx, request.ResourceType)
	logging.FromContext(ctx).Debug("Fetching resource", "resourceType", request.ResourceType, "cache", "miss")

	raw, joined, err := layer.coalescer.Coalesce(
		ctx,
		key,
		func(ctx context.Context) ([]byte, error) {
			value, err := retry.Execute(ctx, layer.executor, request.ResourceType+".fetch", layer.readPolicy, request.Transport)
			if err != nil {
				return nil, err
			}

			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s for caching: %w", request.ResourceType, err)
			}
			return encoded, nil
		},
		func(encoded []byte) {
			layer.store.Set(key, encoded, request.TTL)
		},
	)
	if joined {
		layer.observer.CoalesceJoin(ctx, request.ResourceType)
	}
	if err != nil {
		return empty, err
	}

	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return empty, fmt.Errorf("failed to decode fetched %s: %w", request.ResourceType, err)
	}
	return value, nil
}

// Mutation describes one write. On success the matching invalidation
// rules run synchronously, so the caller's next Fetch cannot observe
// the pre-mutation cached value.
type Mutation[R any] struct {
	Tenant       string
	ResourceType string
	Kind         invalidation.EventKind
	// ResourceID identifies the mutated resource when it is known up
	// front (updates, deletes). For creates, leave it empty and set
	// ResourceIDFromResult instead.
	ResourceID           string
	ResourceIDFromResult func(result R) string
	Transport            func(ctx context.Context) (R, error)
}

// Mutate performs the write under the write retry policy. Failures
// propagate unchanged and evict nothing.
func Mutate[R any](ctx context.Context, layer *Layer, mutation Mutation[R]) (R, error) {
	var empty R

	result, err := retry.Execute(ctx, layer.executor, mutation.ResourceType+".mutate", layer.writePolicy, mutation.Transport)
	if err != nil {
		return empty, err
	}

	resourceID := mutation.ResourceID
	if resourceID == "" && mutation.ResourceIDFromResult != nil {
		resourceID = mutation.ResourceIDFromResult(result)
	}

	event := invalidation.Event{
		Tenant:       mutation.Tenant,
		ResourceType: mutation.ResourceType,
		ResourceID:   resourceID,
		Kind:         mutation.Kind,
	}
	evicted := layer.registry.Apply(ctx, event)
	layer.observer.InvalidationApplied(ctx, event, evicted)

	return result, nil
}
