// Package observability implements the repository observer on
// OpenTelemetry meters.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/repository"
	"github.com/festivo/backstop/internal/retry"
)

type repositoryMetricsCollection struct {
	cacheHitCount      metric.Int64Counter
	cacheMissCount     metric.Int64Counter
	coalesceJoinCount  metric.Int64Counter
	retryAttemptCount  metric.Int64Counter
	retryBackoff       metric.Float64Histogram
	invalidationCount  metric.Int64Counter
	evictedEntryCount  metric.Int64Counter
	tenantInvalidation metric.Int64Counter
}

func setupRepositoryMetrics(meter metric.Meter) (repositoryMetricsCollection, error) {
	cacheHitCount, err := meter.Int64Counter(
		"repository/cache_hit_count",
		metric.WithDescription("Reads served from the cache"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create cache hit count metric: %w", err)
	}

	cacheMissCount, err := meter.Int64Counter(
		"repository/cache_miss_count",
		metric.WithDescription("Reads that went to the network"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create cache miss count metric: %w", err)
	}

	coalesceJoinCount, err := meter.Int64Counter(
		"repository/coalesce_join_count",
		metric.WithDescription("Reads that attached to an in-flight fetch"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create coalesce join count metric: %w", err)
	}

	retryAttemptCount, err := meter.Int64Counter(
		"repository/retry_attempt_count",
		metric.WithDescription("Attempts made by the retry executor"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create retry attempt count metric: %w", err)
	}

	retryBackoff, err := meter.Float64Histogram(
		"repository/retry_backoff_seconds",
		metric.WithDescription("Backoff delays chosen between attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create retry backoff metric: %w", err)
	}

	invalidationCount, err := meter.Int64Counter(
		"repository/invalidation_count",
		metric.WithDescription("Invalidation events applied after mutations"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create invalidation count metric: %w", err)
	}

	evictedEntryCount, err := meter.Int64Counter(
		"repository/evicted_entry_count",
		metric.WithDescription("Cache entries evicted by invalidation"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create evicted entry count metric: %w", err)
	}

	tenantInvalidation, err := meter.Int64Counter(
		"repository/tenant_invalidation_count",
		metric.WithDescription("Tenant-wide cache clears"),
	)
	if err != nil {
		return repositoryMetricsCollection{}, fmt.Errorf("failed to create tenant invalidation metric: %w", err)
	}

	return repositoryMetricsCollection{
		cacheHitCount:      cacheHitCount,
		cacheMissCount:     cacheMissCount,
		coalesceJoinCount:  coalesceJoinCount,
		retryAttemptCount:  retryAttemptCount,
		retryBackoff:       retryBackoff,
		invalidationCount:  invalidationCount,
		evictedEntryCount:  evictedEntryCount,
		tenantInvalidation: tenantInvalidation,
	}, nil
}

type otelObserver struct {
	metrics repositoryMetricsCollection
}

// NewOtelObserver records every repository event as a metric on the
// global meter provider.
func NewOtelObserver() (repository.Observer, error) {
	meter := otel.Meter("backstop/repository")

	metrics, err := setupRepositoryMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &otelObserver{metrics: metrics}, nil
}

func resourceTypeAttr(resourceType string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("resource_type", resourceType))
}

func (o *otelObserver) CacheHit(ctx context.Context, resourceType string) {
	o.metrics.cacheHitCount.Add(ctx, 1, resourceTypeAttr(resourceType))
}

func (o *otelObserver) CacheMiss(ctx context.Context, resourceType string) {
	o.metrics.cacheMissCount.Add(ctx, 1, resourceTypeAttr(resourceType))
}

func (o *otelObserver) CoalesceJoin(ctx context.Context, resourceType string) {
	o.metrics.coalesceJoinCount.Add(ctx, 1, resourceTypeAttr(resourceType))
}

func (o *otelObserver) RetryAttempt(attempt retry.Attempt) {
	// The executor does not thread a request context through to the
	// observer; these are process-level metrics.
	ctx := context.Background()

	attributes := metric.WithAttributes(
		attribute.String("operation", attempt.Operation),
		attribute.String("outcome", string(attempt.Outcome)),
	)
	o.metrics.retryAttemptCount.Add(ctx, 1, attributes)
	if attempt.Delay > 0 {
		o.metrics.retryBackoff.Record(ctx, attempt.Delay.Seconds(), attributes)
	}
}

func (o *otelObserver) InvalidationApplied(ctx context.Context, event invalidation.Event, evicted int) {
	attributes := metric.WithAttributes(
		attribute.String("resource_type", event.ResourceType),
		attribute.String("kind", string(event.Kind)),
	)
	o.metrics.invalidationCount.Add(ctx, 1, attributes)
	o.metrics.evictedEntryCount.Add(ctx, int64(evicted), attributes)
}

func (o *otelObserver) TenantInvalidated(ctx context.Context, evicted int) {
	o.metrics.tenantInvalidation.Add(ctx, 1)
	o.metrics.evictedEntryCount.Add(ctx, int64(evicted), metric.WithAttributes(
		attribute.String("resource_type", "all"),
		attribute.String("kind", "tenant_invalidated"),
	))
}

var _ repository.Observer = (*otelObserver)(nil)
