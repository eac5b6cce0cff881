package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// CorrelationIDKey carries the id of the inbound request.
	CorrelationIDKey contextKey = "correlation_id"
	// BranchIDKey carries the branch an operation acts for.
	BranchIDKey contextKey = "branch_id"
)

// WithCorrelationID adds a correlation ID to the context. It follows a
// request from the HTTP handler to every myDATA and registry call it causes.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID returns the correlation ID, or "" when none is set.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns ctx unchanged when it already carries an id,
// otherwise a child context with a fresh UUID. CLI commands use it since they
// have no request id.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := GetCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithCorrelationID(ctx, id), id
}

func WithBranchID(ctx context.Context, branchID string) context.Context {
	return context.WithValue(ctx, BranchIDKey, branchID)
}

func GetBranchID(ctx context.Context) string {
	if id, ok := ctx.Value(BranchIDKey).(string); ok {
		return id
	}
	return ""
}
