// Package retry drives operations against a flaky upstream: exponential
// backoff with jitter, bounded attempts, and an overall time budget.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	e "github.com/festivo/backstop/internal/errors"
	"github.com/festivo/backstop/internal/logging"
)

// Policy controls how Execute drives an operation.
type Policy struct {
	// MaxAttempts bounds the total number of attempts, first try
	// included. Values below 1 behave as 1.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt. It doubles
	// for every further attempt.
	BaseDelay time.Duration
	// MaxDelay caps a single computed backoff. Zero means no cap.
	MaxDelay time.Duration
	// JitterFraction perturbs each backoff by up to ±JitterFraction of
	// its value, so synchronized callers don't retry in lockstep.
	JitterFraction float64
	// OverallTimeout bounds the whole Execute call, attempts and
	// backoffs included. Zero means no bound beyond ctx.
	OverallTimeout time.Duration
	// Retryable classifies errors. Nil means errors.IsRetryable from
	// the taxonomy package.
	Retryable func(error) bool
}

// ReadPolicy is the default for fetches.
func ReadPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      250 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		JitterFraction: 0.2,
		OverallTimeout: 10 * time.Second,
	}
}

// WritePolicy is the default for mutations: one retry only, since the
// caller sees the error and decides whether to resubmit.
func WritePolicy() Policy {
	return Policy{
		MaxAttempts:    2,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		JitterFraction: 0.2,
		OverallTimeout: 10 * time.Second,
	}
}

// Outcome of a single attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable"
	OutcomeTerminal  Outcome = "terminal"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// Attempt is the structured record emitted for every attempt.
type Attempt struct {
	Operation string
	Number    int
	// Delay is the backoff scheduled after this attempt, or for
	// timeout outcomes the backoff that no longer fit in the budget.
	Delay   time.Duration
	Outcome Outcome
	Err     error
}

// Executor drives retries. The clock, the timer and the jitter source
// are injected so policies can be tested without real sleeps.
type Executor struct {
	nowFunc    func() time.Time
	afterFunc  func(time.Duration) <-chan time.Time
	jitterFunc func() float64
	observer   func(Attempt)
}

// NewExecutor builds an executor on the real clock. observer receives
// one event per attempt and may be nil.
func NewExecutor(
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
	observer func(Attempt),
) *Executor {
	return &Executor{
		nowFunc:    nowFunc,
		afterFunc:  afterFunc,
		jitterFunc: rand.Float64,
		observer:   observer,
	}
}

// Execute runs op under the policy. Non-retryable errors are returned
// unchanged after a single attempt; retryable ones back off until the
// attempts or the overall time budget run out.
func Execute[T any](
	ctx context.Context,
	executor *Executor,
	operation string,
	policy Policy,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var empty T

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = e.IsRetryable
	}

	if policy.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, executor.nowFunc().Add(policy.OverallTimeout))
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		value, err := op(ctx)
		if err == nil {
			executor.observe(Attempt{Operation: operation, Number: attempt, Outcome: OutcomeSuccess})
			return value, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			// The budget died while the attempt ran
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				executor.observe(Attempt{Operation: operation, Number: attempt, Outcome: OutcomeTimeout, Err: err})
				return empty, fmt.Errorf("%w: %s gave up after %d attempts: %w", e.ErrTimeoutExceeded, operation, attempt, err)
			}
			executor.observe(Attempt{Operation: operation, Number: attempt, Outcome: OutcomeCancelled, Err: err})
			return empty, fmt.Errorf("%s cancelled on attempt %d: %w: %w", operation, attempt, ctxErr, err)
		}

		if !retryable(err) {
			executor.observe(Attempt{Operation: operation, Number: attempt, Outcome: OutcomeTerminal, Err: err})
			return empty, err
		}

		if attempt >= maxAttempts {
			executor.observe(Attempt{Operation: operation, Number: attempt, Outcome: OutcomeExhausted, Err: err})
			return empty, fmt.Errorf("%s failed after %d attempts: %w", operation, attempt, err)
		}

		delay := executor.backoff(policy, attempt, err)

		if deadline, ok := ctx.Deadline(); ok && executor.nowFunc().Add(delay).After(deadline) {
			executor.observe(Attempt{Operation: operation, Number: attempt, Delay: delay, Outcome: OutcomeTimeout, Err: err})
			return empty, fmt.Errorf("%w: %s gave up after %d attempts: %w", e.ErrTimeoutExceeded, operation, attempt, err)
		}

		executor.observe(Attempt{Operation: operation, Number: attempt, Delay: delay, Outcome: OutcomeRetryable, Err: err})
		logging.FromContext(ctx).Debug("Retrying operation", "operation", operation, "attempt", attempt, "delay", delay.String(), "error", err)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return empty, fmt.Errorf("%w: %s gave up after %d attempts: %w", e.ErrTimeoutExceeded, operation, attempt, err)
			}
			return empty, fmt.Errorf("%s cancelled on attempt %d: %w: %w", operation, attempt, ctx.Err(), err)
		case <-executor.afterFunc(delay):
		}
	}
}

// backoff computes the delay after the given failed attempt:
// BaseDelay·2^(attempt−1), doubled again for rate limited failures,
// capped, then jittered. An explicit server hint overrides the result,
// but only to make it longer.
func (executor *Executor) backoff(policy Policy, attempt int, err error) time.Duration {
	delay := time.Duration(float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if errors.Is(err, e.ErrRateLimited) {
		delay *= 2
	}
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	if policy.JitterFraction > 0 {
		jitter := policy.JitterFraction * float64(delay) * (executor.jitterFunc()*2 - 1)
		delay += time.Duration(jitter)
	}

	var rateLimitErr *e.RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > delay {
		delay = rateLimitErr.RetryAfter
	}

	if delay < 0 {
		delay = 0
	}
	return delay
}

func (executor *Executor) observe(attempt Attempt) {
	if executor.observer == nil {
		return
	}
	executor.observer(attempt)
}
