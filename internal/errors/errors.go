package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error categories for operations crossing the data access layer.
// Adapters wrap their errors with one of these so that callers can
// classify failures with errors.Is without knowing the transport.
var (
	// ErrTransientNetwork marks failures where a new attempt could
	// plausibly succeed: connection resets, DNS hiccups, upstream 5xx.
	ErrTransientNetwork = errors.New("transient network error")
	// ErrRateLimited marks requests shed by the upstream. Retryable,
	// but with a longer backoff than plain transient failures.
	ErrRateLimited = errors.New("rate limited")
	// ErrTerminalRequest marks requests that will never succeed as
	// sent: malformed input, unknown resources, denied credentials.
	ErrTerminalRequest = errors.New("terminal request error")
	// ErrTimeoutExceeded marks operations abandoned because their
	// overall time budget ran out. It always wraps the last underlying
	// failure.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCacheConsistency marks internal invariant violations in the
	// caching machinery. These are programming defects, not runtime
	// conditions, and are reported as such.
	ErrCacheConsistency = errors.New("cache consistency violation")
)

// IsRetryable reports whether another attempt at the failed operation
// could reasonably succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork) || errors.Is(err, ErrRateLimited)
}

// RateLimitError is returned when the upstream sheds load. RetryAfter
// holds the server-provided backoff hint, or zero when none was given.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
