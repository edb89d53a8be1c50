package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/festivo/backstop/internal/constants"
	e "github.com/festivo/backstop/internal/errors"
	"github.com/festivo/backstop/internal/logging"
	"github.com/festivo/backstop/internal/reporting"
)

type upstreamMetricsCollection struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func setupUpstreamMetrics(meter metric.Meter) (upstreamMetricsCollection, error) {
	requestCount, err := meter.Int64Counter(
		"upstream/request_count",
		metric.WithDescription("Requests sent to the backend"),
	)
	if err != nil {
		return upstreamMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"upstream/request_duration_seconds",
		metric.WithDescription("Round-trip time for backend requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return upstreamMetricsCollection{}, fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return upstreamMetricsCollection{
		requestCount:    requestCount,
		requestDuration: requestDuration,
	}, nil
}

// Client implements Backend against the real REST API.
type Client struct {
	httpClient HttpClient
	baseURL    *url.URL
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter

	metrics upstreamMetricsCollection
	tracer  trace.Tracer
}

func NewClient(httpClient HttpClient, baseURL, apiKey string) (*Client, error) {
	const name = "backstop/upstream"

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base url %q: %w", baseURL, err)
	}

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	metrics, err := setupUpstreamMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "upstream",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Terminal request errors are the caller's fault and say
		// nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !e.IsRetryable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Default().Warn(
				"Upstream circuit breaker state change",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	// Politeness cap on outbound request rate, well below the
	// backend's own limits.
	limiter := rate.NewLimiter(rate.Limit(25), 50)

	return &Client{
		httpClient: httpClient,
		baseURL:    parsed,
		apiKey:     apiKey,
		breaker:    breaker,
		limiter:    limiter,

		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// do sends one request and returns the response body. Every failure
// mode is classified into the error taxonomy here and nowhere else.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, requestBody any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("Upstream.%s %s", method, path))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("aborted waiting for the outbound limiter: %w", err)
	}

	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	statusLabel := "<none>"

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to send request: %w", e.ErrTransientNetwork, err)
		}
		defer resp.Body.Close()

		statusLabel = strconv.Itoa(resp.StatusCode)

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %w", e.ErrTransientNetwork, err)
		}

		if err := classifyStatus(resp.StatusCode, resp.Header); err != nil {
			return nil, err
		}
		return data, nil
	})

	c.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", statusLabel),
	))
	c.metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.FromContext(ctx).Warn("Upstream circuit breaker rejected request", "method", method, "path", path)
		return nil, fmt.Errorf("%w: upstream circuit breaker open: %w", e.ErrTransientNetwork, err)
	}
	if err != nil {
		return nil, err
	}

	data, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected circuit breaker result type %T", e.ErrCacheConsistency, result)
	}
	return data, nil
}

var _ Backend = (*Client)(nil)
