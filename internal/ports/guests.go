package ports

import (
	"log/slog"
	"net/http"

	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

func MakeListGuestsHandler(
	guests *app.GuestRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		filter := domain.GuestFilter{}
		if rawRSVP := r.URL.Query().Get("rsvp"); rawRSVP != "" {
			rsvp, err := parseRSVPStatus(rawRSVP)
			if err != nil {
				statusCode := writeErrorResponse(ctx, w, err)
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid rsvp filter")
				return
			}
			filter.RSVP = rsvp
		}

		guestList, err := guests.List(ctx, tenant, filter)
		if err != nil {
			logger.Error("Error listing guests", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, guestsToListResponse(guestList))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "guests", len(guestList))
	}

	return middleware(reporting.NewAddMetaMiddleware("list-guests")(handler))
}

func MakeCreateGuestHandler(
	guests *app.GuestRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		request, err := decodeJSONBody[createGuestRequest](r)
		if err != nil {
			statusCode := http.StatusBadRequest
			writeJSONError(w, statusCode, "Invalid JSON body")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid body")
			return
		}

		draft, err := request.toDraft()
		if err != nil {
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid draft")
			return
		}

		guest, err := guests.Create(ctx, tenant, draft)
		if err != nil {
			logger.Error("Error creating guest", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusCreated, guestToResponse(guest))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "guestId", guest.ID)
	}

	return middleware(reporting.NewAddMetaMiddleware("create-guest")(handler))
}

func MakeUpdateGuestHandler(
	guests *app.GuestRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		guestID := r.PathValue("id")
		ctx = logging.AddMetaToContext(ctx, slog.String("guestId", guestID))
		logger := logging.FromContext(ctx)

		request, err := decodeJSONBody[updateGuestRequest](r)
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

		guest, err := guests.Update(ctx, tenant, guestID, patch)
		if err != nil {
			logger.Error("Error updating guest", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, guestToResponse(guest))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(reporting.NewAddMetaMiddleware("update-guest")(handler))
}

func MakeDeleteGuestHandler(
	guests *app.GuestRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		guestID := r.PathValue("id")
		ctx = logging.AddMetaToContext(ctx, slog.String("guestId", guestID))
		logger := logging.FromContext(ctx)

		if err := guests.Delete(ctx, tenant, guestID); err != nil {
			logger.Error("Error deleting guest", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := http.StatusNoContent
		w.WriteHeader(statusCode)
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(reporting.NewAddMetaMiddleware("delete-guest")(handler))
}
