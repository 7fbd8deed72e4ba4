package infrastructure

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	runIDKey
)

// WithTraceID stores a trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the stored trace id, falling back to the active span's
// trace id.
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok && id != "" {
		return id
	}
	return TraceIDFromContext(ctx)
}

// EnsureTraceID returns ctx carrying a trace id, generating one if needed.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// GenerateRunID builds the id of one run, e.g. "run-20260310-1f0c9a2b", from
// the trading day being processed.
func GenerateRunID(runDate time.Time) string {
	return "run-" + runDate.Format("20060102") + "-" + uuid.NewString()[:8]
}

// WithRunID stores the run id in the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID returns the run id, or "" outside a run.
func GetRunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
