// Package coalescing deduplicates concurrent operations by key. At most
// one operation runs per key at any time; every caller waiting on that
// key receives the identical settled result.
package coalescing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	e "github.com/festivo/backstop/internal/errors"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

type pendingOperation[T any] struct {
	done        chan struct{}
	cancel      context.CancelFunc
	subscribers int
	abandoned   bool
	settled     bool

	// written by the runner before done is closed
	value T
	err   error
}

// Coalescer tracks one pendingOperation per key. The zero value is not
// usable; construct with New.
type Coalescer[T any] struct {
	mu      sync.Mutex
	pending map[string]*pendingOperation[T]
}

func New[T any]() *Coalescer[T] {
	return &Coalescer[T]{
		pending: make(map[string]*pendingOperation[T]),
	}
}

// Coalesce runs op at most once per key, no matter how many callers ask
// concurrently. The first caller starts op in its own goroutine; callers
// arriving before settlement join it and report joined=true.
//
// The operation's context is detached from any single caller: a caller
// whose ctx ends stops waiting and gets its ctx error, but the operation
// is only cancelled once every subscriber has gone.
//
// publish, if non-nil, runs exactly once when op succeeds, before any
// subscriber is released and only if the operation was not abandoned in
// the meantime. It is where the produced value enters the cache.
func (c *Coalescer[T]) Coalesce(
	ctx context.Context,
	key string,
	op func(ctx context.Context) (T, error),
	publish func(value T),
) (T, bool, error) {
	c.mu.Lock()
	if p, ok := c.pending[key]; ok {
		p.subscribers++
		c.mu.Unlock()

		logging.FromContext(ctx).Debug("Joined in-flight operation", "key", key)
		return c.wait(ctx, key, p, true)
	}

	// Cancellation is decided by the subscriber count, not by whoever
	// happened to arrive first.
	opCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &pendingOperation[T]{
		done:        make(chan struct{}),
		cancel:      cancel,
		subscribers: 1,
	}
	c.pending[key] = p
	c.mu.Unlock()

	go c.run(opCtx, key, p, op, publish)

	return c.wait(ctx, key, p, false)
}

func (c *Coalescer[T]) run(
	ctx context.Context,
	key string,
	p *pendingOperation[T],
	op func(ctx context.Context) (T, error),
	publish func(value T),
) {
	value, err := op(ctx)

	c.mu.Lock()
	if p.settled {
		c.mu.Unlock()
		reporting.Report(ctx, fmt.Errorf("%w: operation for key %q settled twice", e.ErrCacheConsistency, key))
		return
	}
	if current, ok := c.pending[key]; ok && current == p {
		delete(c.pending, key)
	}
	p.value = value
	p.err = err
	p.settled = true
	if err == nil && !p.abandoned && publish != nil {
		publish(value)
	}
	c.mu.Unlock()

	close(p.done)
	p.cancel()
}

func (c *Coalescer[T]) wait(ctx context.Context, key string, p *pendingOperation[T], joined bool) (T, bool, error) {
	select {
	case <-p.done:
		if p.err != nil {
			var empty T
			return empty, joined, p.err
		}
		return p.value, joined, nil
	case <-ctx.Done():
		c.unsubscribe(ctx, key, p)
		var empty T
		return empty, joined, ctx.Err()
	}
}

func (c *Coalescer[T]) unsubscribe(ctx context.Context, key string, p *pendingOperation[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.settled {
		return
	}

	p.subscribers--
	if p.subscribers > 0 {
		return
	}
	if p.subscribers < 0 {
		reporting.Report(ctx, fmt.Errorf("%w: negative subscriber count for key %q", e.ErrCacheConsistency, key))
		return
	}

	// Nobody is waiting for the result anymore
	logging.FromContext(ctx).Debug("Cancelling abandoned operation", "key", key)
	p.cancel()
	if current, ok := c.pending[key]; ok && current == p {
		delete(c.pending, key)
	}
}

// Abandon detaches every pending operation whose key starts with prefix
// and returns how many were detached. Current subscribers still receive
// the settled result, but the publish step is suppressed and later
// callers start a fresh operation. Invalidation uses this so a racing
// fetch cannot re-publish an entry that was just evicted.
func (c *Coalescer[T]) Abandon(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	detached := 0
	for key, p := range c.pending {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		p.abandoned = true
		delete(c.pending, key)
		detached++
	}
	return detached
}

// Cancel abandons matching operations and additionally cancels their
// contexts. Subscribers receive the cancellation error.
func (c *Coalescer[T]) Cancel(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cancelled := 0
	for key, p := range c.pending {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		p.abandoned = true
		p.cancel()
		delete(c.pending, key)
		cancelled++
	}
	return cancelled
}

// InFlight reports the number of pending operations.
func (c *Coalescer[T]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// Subscribers reports how many callers are waiting on the key's pending
// operation, or 0 when none is in flight.
func (c *Coalescer[T]) Subscribers(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[key]
	if !ok {
		return 0
	}
	return p.subscribers
}
