package ports

import (
	"net/http"

	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

// MakeInvalidateCacheHandler drops everything the tenant has in the
// cache. Clients call it on logout and on workspace switch.
func MakeInvalidateCacheHandler(
	cacheAdmin *app.CacheAdmin,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		evicted, err := cacheAdmin.InvalidateAll(ctx, tenant)
		if err != nil {
			logger.Error("Error invalidating tenant cache", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, invalidateCacheResponse{Evicted: evicted})
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "evicted", evicted)
	}

	return middleware(reporting.NewAddMetaMiddleware("invalidate-cache")(handler))
}
