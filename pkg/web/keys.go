package web

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the request ID for downstream handlers and loggers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request ID stored by RequestIDInjector, or an
// empty string when the middleware did not run.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
