package ports

import (
	"log/slog"
	"net/http"

	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

func MakeListVendorsHandler(
	vendors *app.VendorRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		filter := domain.VendorFilter{}
		if rawCategory := r.URL.Query().Get("category"); rawCategory != "" {
			category, err := parseVendorCategory(rawCategory)
			if err != nil {
				statusCode := writeErrorResponse(ctx, w, err)
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid category filter")
				return
			}
			filter.Category = category
		}

		vendorList, err := vendors.List(ctx, tenant, filter)
		if err != nil {
			logger.Error("Error listing vendors", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, vendorsToListResponse(vendorList))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "vendors", len(vendorList))
	}

	return middleware(reporting.NewAddMetaMiddleware("list-vendors")(handler))
}

func MakeCreateVendorHandler(
	vendors *app.VendorRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		logger := logging.FromContext(ctx)

		request, err := decodeJSONBody[createVendorRequest](r)
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

		vendor, err := vendors.Create(ctx, tenant, draft)
		if err != nil {
			logger.Error("Error creating vendor", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusCreated, vendorToResponse(vendor))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "vendorId", vendor.ID)
	}

	return middleware(reporting.NewAddMetaMiddleware("create-vendor")(handler))
}

func MakeBookVendorHandler(
	vendors *app.VendorRepository,
	middleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenant := TenantFromContext(ctx)
		vendorID := r.PathValue("id")
		ctx = logging.AddMetaToContext(ctx, slog.String("vendorId", vendorID))
		logger := logging.FromContext(ctx)

		request, err := decodeJSONBody[bookVendorRequest](r)
		if err != nil {
			statusCode := http.StatusBadRequest
			writeJSONError(w, statusCode, "Invalid JSON body")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid body")
			return
		}

		vendor, err := vendors.Book(ctx, tenant, vendorID, domain.Booking{Booked: request.Booked})
		if err != nil {
			logger.Error("Error booking vendor", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, http.StatusOK, vendorToResponse(vendor))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "booked", vendor.Booked)
	}

	return middleware(reporting.NewAddMetaMiddleware("book-vendor")(handler))
}
