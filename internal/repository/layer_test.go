package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/festivo/backstop/internal/adapters/cache"
	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/retry"
)

const (
	tenantA = "aaaaaaaa-0000-0000-0000-000000000000"
	tenantB = "bbbbbbbb-0000-0000-0000-000000000000"
)

type guestList struct {
	Names []string
}

// countingTransport fakes the network and counts invocations.
type countingTransport struct {
	mu    sync.Mutex
	calls int
	value guestList
	err   error
}

func (t *countingTransport) fetch(ctx context.Context) (guestList, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	if t.err != nil {
		return guestList{}, t.err
	}
	return t.value, nil
}

func (t *countingTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}

type recordingObserver struct {
	mu                sync.Mutex
	hits              int
	misses            int
	joins             int
	invalidations     int
	tenantInvalidated int
}

func (o *recordingObserver) CacheHit(context.Context, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits++
}

func (o *recordingObserver) CacheMiss(context.Context, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses++
}

func (o *recordingObserver) CoalesceJoin(context.Context, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.joins++
}

func (o *recordingObserver) RetryAttempt(retry.Attempt) {}

func (o *recordingObserver) InvalidationApplied(context.Context, invalidation.Event, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidations++
}

func (o *recordingObserver) TenantInvalidated(context.Context, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tenantInvalidated++
}

func newTestLayer(t *testing.T, observer Observer) (*Layer, *time.Time) {
	t.Helper()

	now := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	store := cache.NewMemoryStore(func() time.Time { return now })

	executor := retry.NewExecutor(time.Now, time.After, nil)
	immediate := retry.Policy{MaxAttempts: 1}
	layer := New(store, executor, immediate, immediate, observer)
	return layer, &now
}

func registerGuestRules(layer *Layer) {
	layer.Rules().Register("guests", invalidation.Rule{
		Patterns: func(tenant, resourceID string) []string {
			return []string{tenant + "/guests/", tenant + "/summary/"}
		},
	})
}

func guestFetchRequest(tenant string, transport *countingTransport) FetchRequest[guestList] {
	return FetchRequest[guestList]{
		Tenant:       tenant,
		ResourceType: "guests",
		Qualifier:    "all",
		TTL:          time.Minute,
		Transport:    transport.fetch,
	}
}

func TestFetchCachesTheFirstRead(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	layer, _ := newTestLayer(t, observer)
	transport := &countingTransport{value: guestList{Names: []string{"Ada", "Brendan"}}}

	first, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, []string{"Ada", "Brendan"}, first.Names)

	second, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Equal(t, 1, transport.callCount(), "second read should be served from cache")
	require.Equal(t, 1, observer.hits)
	require.Equal(t, 1, observer.misses)
}

func TestFetchExpiresWithTheTTL(t *testing.T) {
	t.Parallel()

	layer, now := newTestLayer(t, nil)
	transport := &countingTransport{value: guestList{Names: []string{"Ada"}}}

	_, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)

	*now = now.Add(59 * time.Second)
	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, 1, transport.callCount(), "entry should still be fresh at t+59s")

	*now = now.Add(2 * time.Second)
	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, 2, transport.callCount(), "entry should have expired at t+61s")
}

func TestConcurrentFetchesCoalesceIntoOneCall(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	layer, _ := newTestLayer(t, observer)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	transport := &countingTransport{value: guestList{Names: []string{"Ada"}}}
	blockingFetch := func(ctx context.Context) (guestList, error) {
		once.Do(func() { close(started) })
		<-release
		return transport.fetch(ctx)
	}

	request := guestFetchRequest(tenantA, transport)
	request.Transport = blockingFetch

	const callers = 8
	group, ctx := errgroup.WithContext(t.Context())
	for range callers {
		group.Go(func() error {
			value, err := Fetch(ctx, layer, request)
			if err != nil {
				return err
			}
			if len(value.Names) != 1 || value.Names[0] != "Ada" {
				return fmt.Errorf("unexpected value: %v", value)
			}
			return nil
		})
	}

	<-started
	// Give the remaining callers time to join the pending operation
	// rather than racing the cache write.
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, group.Wait())
	require.Equal(t, 1, transport.callCount(), "all concurrent fetches should share one network call")
}

func TestFetchPropagatesErrorsWithoutCaching(t *testing.T) {
	t.Parallel()

	layer, _ := newTestLayer(t, nil)
	transport := &countingTransport{err: fmt.Errorf("upstream exploded")}

	_, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.ErrorContains(t, err, "upstream exploded")

	transport.mu.Lock()
	transport.err = nil
	transport.mu.Unlock()

	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, 2, transport.callCount(), "a failed fetch must not poison the cache")
}

func TestMutateEvictsBeforeReturning(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	layer, _ := newTestLayer(t, observer)
	registerGuestRules(layer)
	transport := &countingTransport{value: guestList{Names: []string{"Ada"}}}

	_, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)

	_, err = Mutate(t.Context(), layer, Mutation[string]{
		Tenant:       tenantA,
		ResourceType: "guests",
		Kind:         invalidation.Created,
		ResourceIDFromResult: func(id string) string {
			return id
		},
		Transport: func(ctx context.Context) (string, error) {
			return "guest-2", nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, observer.invalidations)

	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, 2, transport.callCount(), "fetch after mutate must hit the network again")
}

func TestFailedMutateEvictsNothing(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	layer, _ := newTestLayer(t, observer)
	registerGuestRules(layer)
	transport := &countingTransport{value: guestList{Names: []string{"Ada"}}}

	_, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)

	_, err = Mutate(t.Context(), layer, Mutation[string]{
		Tenant:       tenantA,
		ResourceType: "guests",
		Kind:         invalidation.Updated,
		ResourceID:   "guest-1",
		Transport: func(ctx context.Context) (string, error) {
			return "", fmt.Errorf("backend rejected the write")
		},
	})
	require.ErrorContains(t, err, "backend rejected the write")
	require.Equal(t, 0, observer.invalidations)

	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, 1, transport.callCount(), "cache should be untouched after a failed mutation")
}

func TestTenantsAreIsolated(t *testing.T) {
	t.Parallel()

	layer, _ := newTestLayer(t, nil)
	registerGuestRules(layer)
	transportA := &countingTransport{value: guestList{Names: []string{"Ada"}}}
	transportB := &countingTransport{value: guestList{Names: []string{"Björn"}}}

	_, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transportA))
	require.NoError(t, err)
	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantB, transportB))
	require.NoError(t, err)

	// A mutation in tenant A must not evict tenant B's entries.
	_, err = Mutate(t.Context(), layer, Mutation[string]{
		Tenant:       tenantA,
		ResourceType: "guests",
		Kind:         invalidation.Deleted,
		ResourceID:   "guest-1",
		Transport: func(ctx context.Context) (string, error) {
			return "guest-1", nil
		},
	})
	require.NoError(t, err)

	valueB, err := Fetch(t.Context(), layer, guestFetchRequest(tenantB, transportB))
	require.NoError(t, err)
	require.Equal(t, []string{"Björn"}, valueB.Names)
	require.Equal(t, 1, transportB.callCount(), "tenant B should still be served from cache")

	// Nor should clearing tenant A's cache entirely.
	layer.InvalidateAll(t.Context(), tenantA)

	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantB, transportB))
	require.NoError(t, err)
	require.Equal(t, 1, transportB.callCount())

	_, err = Fetch(t.Context(), layer, guestFetchRequest(tenantA, transportA))
	require.NoError(t, err)
	require.Equal(t, 2, transportA.callCount(), "tenant A's entries should all be gone")
}

func TestInvalidationAbandonsRacingFetches(t *testing.T) {
	t.Parallel()

	layer, _ := newTestLayer(t, nil)
	registerGuestRules(layer)

	started := make(chan struct{})
	release := make(chan struct{})
	transport := &countingTransport{value: guestList{Names: []string{"stale"}}}

	request := guestFetchRequest(tenantA, transport)
	request.Transport = func(ctx context.Context) (guestList, error) {
		close(started)
		<-release
		return transport.fetch(ctx)
	}

	fetchDone := make(chan error, 1)
	go func() {
		_, err := Fetch(context.WithoutCancel(t.Context()), layer, request)
		fetchDone <- err
	}()

	<-started
	// The mutation lands while the fetch is still in flight.
	_, err := Mutate(t.Context(), layer, Mutation[string]{
		Tenant:       tenantA,
		ResourceType: "guests",
		Kind:         invalidation.Updated,
		ResourceID:   "guest-1",
		Transport: func(ctx context.Context) (string, error) {
			return "guest-1", nil
		},
	})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-fetchDone, "the racing fetch still gets its value")

	// The racing fetch must not have re-published the pre-mutation
	// value into the cache.
	fresh := guestFetchRequest(tenantA, transport)
	_, err = Fetch(t.Context(), layer, fresh)
	require.NoError(t, err)
	require.Equal(t, 2, transport.callCount(), "the stale in-flight result must not be cached")
}

func TestFetchRecoversFromCorruptCacheEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	store := cache.NewMemoryStore(func() time.Time { return now })
	executor := retry.NewExecutor(time.Now, time.After, nil)
	layer := New(store, executor, retry.Policy{MaxAttempts: 1}, retry.Policy{MaxAttempts: 1}, nil)

	store.Set(tenantA+"/guests/all", []byte("not json"), time.Minute)

	transport := &countingTransport{value: guestList{Names: []string{"Ada"}}}
	value, err := Fetch(t.Context(), layer, guestFetchRequest(tenantA, transport))
	require.NoError(t, err)
	require.Equal(t, []string{"Ada"}, value.Names)
	require.Equal(t, 1, transport.callCount(), "corrupt entry should be treated as a miss")
}
