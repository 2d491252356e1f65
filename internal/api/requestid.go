package api

import "context"

// RequestIDHeader carries a correlation id to the backend.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// ContextWithRequestID returns ctx carrying id. Requests sent with the
// returned context forward it in RequestIDHeader.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
