package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// NewTracingLogHandler decorates log records with the active otel
// trace/span ids so logs can be joined with traces.
//
// NOTE: Requires the use of the *Context slog methods to get the tracing info
func NewTracingLogHandler(baseHandler slog.Handler) *tracingLogHandler {
	return &tracingLogHandler{base: baseHandler}
}

type tracingLogHandler struct {
	base slog.Handler
}

func (h *tracingLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *tracingLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("traceId", sc.TraceID().String()),
			slog.String("spanId", sc.SpanID().String()),
			slog.Bool("traceSampled", sc.TraceFlags().IsSampled()),
		)
	}
	return h.base.Handle(ctx, r)
}

func (h *tracingLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTracingLogHandler(h.base.WithAttrs(attrs))
}

func (h *tracingLogHandler) WithGroup(name string) slog.Handler {
	return NewTracingLogHandler(h.base.WithGroup(name))
}

// Type assertion
var _ slog.Handler = (*tracingLogHandler)(nil)
