package upstream

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/festivo/backstop/internal/domain"
	e "github.com/festivo/backstop/internal/errors"
)

// classifyStatus maps a backend status code into the error taxonomy.
// nil means the response is usable.
func classifyStatus(statusCode int, header http.Header) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	switch statusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w: upstream rejected the request", e.ErrTerminalRequest, domain.ErrInvalidRequest)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: upstream denied access (status %d)", e.ErrTerminalRequest, statusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", e.ErrTerminalRequest, domain.ErrNotFound)
	case http.StatusRequestTimeout:
		return fmt.Errorf("%w: upstream timed out the request", e.ErrTransientNetwork)
	case http.StatusTooManyRequests:
		return fmt.Errorf("upstream shed the request: %w", &e.RateLimitError{
			RetryAfter: parseRetryAfter(header),
		})
	}

	if statusCode >= 500 {
		return fmt.Errorf("%w: %w: upstream returned status %d", e.ErrTransientNetwork, domain.ErrTemporarilyUnavailable, statusCode)
	}

	return fmt.Errorf("%w: unexpected upstream status %d", e.ErrTerminalRequest, statusCode)
}

// parseRetryAfter reads the Retry-After header in either of its forms.
// Zero means no usable hint.
func parseRetryAfter(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(raw); err == nil {
		wait := time.Until(at)
		if wait < 0 {
			return 0
		}
		return wait
	}

	return 0
}
