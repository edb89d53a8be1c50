package ports

import (
	"net/http"

	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

func MakeGetSettingsHandler(
	settings *app.SettingsRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		current, err := settings.Get(ctx, tenant)
		if err != nil {
			logger.Error("Error getting settings", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, settingsToResponse(current))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(reporting.NewAddMetaMiddleware("get-settings")(handler))
}

func MakeUpdateSettingsHandler(
	settings *app.SettingsRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		request, err := decodeJSONBody[updateSettingsRequest](r)
		if err != nil {
			statusCode := http.StatusBadRequest
			writeJSONError(w, statusCode, "Invalid JSON body")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid body")
			return
		}

		patch, err := request.toPatch()
		if err != nil {
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid patch")
			return
		}

		updated, err := settings.Update(ctx, tenant, patch)
		if err != nil {
			logger.Error("Error updating settings", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, settingsToResponse(updated))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(reporting.NewAddMetaMiddleware("update-settings")(handler))
}
