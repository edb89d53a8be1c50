package ports

import (
	"net/http"

	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

func MakeGetSummaryHandler(
	summaries *app.SummaryRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		summary, err := summaries.Get(ctx, tenant)
		if err != nil {
			logger.Error("Error getting summary", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, summaryToResponse(summary))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(reporting.NewAddMetaMiddleware("get-summary")(handler))
}
