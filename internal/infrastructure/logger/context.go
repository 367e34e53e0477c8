package logger

import "context"

// contextKey keeps this package's context values from colliding with keys
// from other packages.
type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID returns a context carrying the request id so layers below
// the HTTP surface (SQL trace logs, gateway calls) can correlate their
// entries with the access log. An empty id leaves the context unchanged.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request id from the context, or "" when none
// was assigned.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
