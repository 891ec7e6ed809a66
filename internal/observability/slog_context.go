package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type logCtxKey string

const (
	logKeyRequestID logCtxKey = "request_id"
	logKeyUserID    logCtxKey = "user_id"
)

// WithRequestID and WithUserID attach correlation fields for log records only;
// nothing reads them for authorization.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, logKeyRequestID, id)
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, logKeyUserID, id)
}

// TraceHandler decorates records with trace/span ids and the request correlation fields.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, r)
	}

	sc := trace.SpanFromContext(ctx).SpanContext()

	if sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if id, ok := ctx.Value(logKeyRequestID).(string); ok && id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}

	if id, ok := ctx.Value(logKeyUserID).(int64); ok && id > 0 {
		r.AddAttrs(slog.Int64("user_id", id))
	}

	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}
