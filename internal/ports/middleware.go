package ports

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/ratelimiting"
	"github.com/festivo/backstop/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

type tenantContextKey struct{}

// TenantFromContext returns the canonical tenant id stored by
// NewTenantMiddleware, or "" when the middleware did not run.
func TenantFromContext(ctx context.Context) string {
	tenant, ok := ctx.Value(tenantContextKey{}).(string)
	if !ok {
		return ""
	}
	return tenant
}

// NewTenantMiddleware validates the X-Tenant-Id header and stores the
// canonical spelling in the request context. Requests without a valid
// tenant id never reach the handler.
func NewTenantMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			rawTenant := r.Header.Get("X-Tenant-Id")
			if rawTenant == "" {
				statusCode := http.StatusBadRequest
				writeJSONError(w, statusCode, "Missing X-Tenant-Id header")
				logger.Info("Returning response", "statusCode", statusCode, "reason", "missing tenant id")
				return
			}

			tenant, err := keys.NormalizeTenantID(rawTenant)
			if err != nil {
				statusCode := http.StatusBadRequest
				writeJSONError(w, statusCode, "Invalid X-Tenant-Id header")
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid tenant id")
				return
			}

			ctx = context.WithValue(ctx, tenantContextKey{}, tenant)
			ctx = reporting.SetUserIDInContext(ctx, tenant)
			ctx = logging.AddMetaToContext(ctx, slog.String("tenant", tenant))

			next(w, r.WithContext(ctx))
		}
	}
}

// NewStandardMiddleware builds the middleware stack shared by every
// endpoint: metrics, request logging, error reporting, CORS, rate
// limiting per IP and per tenant, and tenant validation. Handlers add
// their own endpoint tag on top with reporting.NewAddMetaMiddleware.
func NewStandardMiddleware(
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	allowedOrigins *DomainSuffixes,
) func(http.HandlerFunc) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(8),
		ratelimiting.BurstSize(480),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)
	tenantLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(4),
		ratelimiting.BurstSize(240),
	)
	tenantRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		tenantLimiter,
		ratelimiting.TenantKeyFunc,
	)

	makeOnLimitExceeded := func(rateLimiter ratelimiting.RequestRateLimiter) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			statusCode := http.StatusTooManyRequests
			writeJSONError(w, statusCode, "Rate limit exceeded")

			logger.Info("Returning response", "statusCode", statusCode, "reason", "ratelimit exceeded", "key", rateLimiter.KeyFor(r))
		}
	}

	return ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(tenantRateLimiter, makeOnLimitExceeded(tenantRateLimiter)),
		NewTenantMiddleware(),
	)
}
