package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// LearnerIDContextKey is the context key for the authenticated learner ID
	LearnerIDContextKey ContextKey = "learnerID"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a freshly generated trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetLearnerID stores the authenticated learner in the context.
func SetLearnerID(ctx context.Context, learnerID uuid.UUID) context.Context {
	return context.WithValue(ctx, LearnerIDContextKey, learnerID)
}

// GetLearnerID returns the authenticated learner, if any.
func GetLearnerID(ctx context.Context) (uuid.UUID, bool) {
	learnerID, ok := ctx.Value(LearnerIDContextKey).(uuid.UUID)
	if !ok || learnerID == uuid.Nil {
		return uuid.Nil, false
	}
	return learnerID, true
}

// generateTraceID returns 32 hex characters.
func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
