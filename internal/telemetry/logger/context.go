package logger

import "context"

type ctxKey int

const (
	loggerCtxKey ctxKey = iota
	requestIDCtxKey
)

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, l)
}

// FromContext returns the logger carried by ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerCtxKey).(Logger); ok && l != nil {
		return l
	}
	return Default()
}

// WithRequestID tags ctx with the X-Request-ID used for outbound calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, id)
}

// RequestIDFromContext returns the request ID set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}

// L returns the context logger with the request ID attached when present.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}
