package repository

import (
	"context"

	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/retry"
)

// Observer receives one event per notable cache interaction. The otel
// implementation lives in internal/observability; tests use their own.
type Observer interface {
	CacheHit(ctx context.Context, resourceType string)
	CacheMiss(ctx context.Context, resourceType string)
	CoalesceJoin(ctx context.Context, resourceType string)
	RetryAttempt(attempt retry.Attempt)
	InvalidationApplied(ctx context.Context, event invalidation.Event, evicted int)
	TenantInvalidated(ctx context.Context, evicted int)
}

type NoopObserver struct{}

func (NoopObserver) CacheHit(context.Context, string)                             {}
func (NoopObserver) CacheMiss(context.Context, string)                            {}
func (NoopObserver) CoalesceJoin(context.Context, string)                         {}
func (NoopObserver) RetryAttempt(retry.Attempt)                                   {}
func (NoopObserver) InvalidationApplied(context.Context, invalidation.Event, int) {}
func (NoopObserver) TenantInvalidated(context.Context, int)                       {}

var _ Observer = NoopObserver{}
