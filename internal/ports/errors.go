package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/festivo/backstop/internal/domain"
	e "github.com/festivo/backstop/internal/errors"
	"github.com/festivo/backstop/internal/reporting"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	data, err := json.Marshal(errorResponse{Error: message})
	if err != nil {
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Write(data)
}

// writeErrorResponse maps a data access failure to an HTTP response and
// returns the status code it wrote. Unclassified errors are reported.
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, responseError error) int {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var rateLimitErr *e.RateLimitError

	switch {
	// Timeouts wrap the last underlying failure, so they are matched
	// before the categories that failure may carry.
	case errors.Is(responseError, e.ErrTimeoutExceeded), errors.Is(responseError, context.DeadlineExceeded):
		statusCode = http.StatusGatewayTimeout
		message = "Upstream request timed out"
	case errors.As(responseError, &rateLimitErr):
		statusCode = http.StatusTooManyRequests
		message = "Upstream rate limit exceeded"
		if rateLimitErr.RetryAfter > 0 {
			seconds := int(math.Ceil(rateLimitErr.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
	case errors.Is(responseError, e.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
		message = "Upstream rate limit exceeded"
	case errors.Is(responseError, domain.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case errors.Is(responseError, domain.ErrInvalidRequest):
		statusCode = http.StatusBadRequest
		message = "Invalid request"
	case errors.Is(responseError, e.ErrTerminalRequest):
		statusCode = http.StatusBadRequest
		message = "Invalid request"
	case errors.Is(responseError, domain.ErrTemporarilyUnavailable), errors.Is(responseError, e.ErrTransientNetwork):
		statusCode = http.StatusServiceUnavailable
		message = "Service temporarily unavailable"
	default:
		reporting.Report(ctx, fmt.Errorf("unclassified handler error: %w", responseError))
	}

	writeJSONError(w, statusCode, message)

	return statusCode
}

// writeJSONResponse marshals and writes a success payload, returning
// the status code it wrote.
func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		errorCode := http.StatusInternalServerError
		writeJSONError(w, errorCode, "Internal server error")
		return errorCode
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)

	return statusCode
}

func decodeJSONBody[T any](r *http.Request) (T, error) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("failed to decode request body: %w", err)
	}
	return payload, nil
}
