package types

import "context"

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID stores the run ID in the context. Outbound provider calls carry
// it as a trace header so one poll can be correlated across both providers.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
