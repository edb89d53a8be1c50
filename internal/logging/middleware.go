package logging

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// NewRequestLoggerMiddleware builds a per-request logger carrying a
// generated request id and the caller-supplied tenant header, and puts
// it in the request context for FromContext.
func NewRequestLoggerMiddleware(logger *slog.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Header.Get("X-Tenant-Id")
			if tenant == "" {
				tenant = "<missing>"
			}

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			requestLogger := logger.With(
				slog.String("requestId", uuid.New().String()),
				slog.String("tenant", tenant),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("userAgent", userAgent),
			)

			next(w, r.WithContext(AddToContext(r.Context(), requestLogger)))
		}
	}
}
