package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/festivo/backstop/internal/adapters/cache"
	"github.com/festivo/backstop/internal/adapters/upstream"
	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/config"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/observability"
	"github.com/festivo/backstop/internal/ports"
	"github.com/festivo/backstop/internal/reporting"
	"github.com/festivo/backstop/internal/repository"
	"github.com/festivo/backstop/internal/retry"
	"github.com/festivo/backstop/internal/telemetry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "golang.org/x/crypto/x509roots/fallback"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "festivo.app"
const STAGING_DOMAIN_SUFFIX = "festivo-staging.pages.dev"

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil)),
	).With("instanceID", instanceID)
	slog.SetDefault(logger)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "backstop")
	if err != nil {
		fail("Failed to initialize OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()

	store, stopStore, err := newCacheStore(ctx, config)
	if err != nil {
		fail("Failed to initialize cache store", "error", err.Error())
	}
	defer stopStore()
	logger.Info("Initialized cache store", "backend", string(config.CacheBackend()))

	observer, err := observability.NewOtelObserver()
	if err != nil {
		fail("Failed to initialize repository metrics", "error", err.Error())
	}

	executor := retry.NewExecutor(time.Now, time.After, observer.RetryAttempt)
	layer := repository.New(store, executor, retry.ReadPolicy(), retry.WritePolicy(), observer)
	app.RegisterInvalidationRules(layer)

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	backend, err := upstream.NewClientOrMock(config, httpClient)
	if err != nil {
		fail("Failed to initialize upstream backend", "error", err.Error())
	}
	logger.Info("Initialized upstream backend")

	guests := app.NewGuestRepository(layer, backend)
	vendors := app.NewVendorRepository(layer, backend)
	settings := app.NewSettingsRepository(layer, backend)
	summaries := app.NewSummaryRepository(layer, backend)
	cacheAdmin := app.NewCacheAdmin(layer)

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	middleware := ports.NewStandardMiddleware(logger, sentryMiddleware, allowedOrigins)

	http.HandleFunc("OPTIONS /v1/guests", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("GET /v1/guests", ports.MakeListGuestsHandler(guests, middleware))
	http.HandleFunc("POST /v1/guests", ports.MakeCreateGuestHandler(guests, middleware))

	http.HandleFunc("OPTIONS /v1/guests/{id}", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("PATCH /v1/guests/{id}", ports.MakeUpdateGuestHandler(guests, middleware))
	http.HandleFunc("DELETE /v1/guests/{id}", ports.MakeDeleteGuestHandler(guests, middleware))

	http.HandleFunc("OPTIONS /v1/vendors", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("GET /v1/vendors", ports.MakeListVendorsHandler(vendors, middleware))
	http.HandleFunc("POST /v1/vendors", ports.MakeCreateVendorHandler(vendors, middleware))

	http.HandleFunc("OPTIONS /v1/vendors/{id}/booking", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("PATCH /v1/vendors/{id}/booking", ports.MakeBookVendorHandler(vendors, middleware))

	http.HandleFunc("OPTIONS /v1/settings", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("GET /v1/settings", ports.MakeGetSettingsHandler(settings, middleware))
	http.HandleFunc("PUT /v1/settings", ports.MakeUpdateSettingsHandler(settings, middleware))

	http.HandleFunc("OPTIONS /v1/summary", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("GET /v1/summary", ports.MakeGetSummaryHandler(summaries, middleware))

	http.HandleFunc("OPTIONS /v1/cache/invalidate", ports.BuildCORSHandler(allowedOrigins))
	http.HandleFunc("POST /v1/cache/invalidate", ports.MakeInvalidateCacheHandler(cacheAdmin, middleware))

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}

func newCacheStore(ctx context.Context, conf config.Config) (cache.Store, func(), error) {
	switch conf.CacheBackend() {
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(time.Now), func() {}, nil
	case config.CacheBackendTTL:
		store, stop := cache.NewTTLStore(1 * time.Minute)
		return store, stop, nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: conf.RedisAddr()})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return cache.NewRedisStore(ctx, client, "backstop"), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", string(conf.CacheBackend()))
}
