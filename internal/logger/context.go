package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or a no-op logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequest derives the request logger and stores it in ctx.
// userID is omitted for anonymous routes such as /health.
func WithRequest(ctx context.Context, base *zap.Logger, requestID, userID string) (context.Context, *zap.Logger) {
	fields := []zap.Field{zap.String("request_id", requestID)}
	if userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	l := base.With(fields...)
	return ContextWithLogger(ctx, l), l
}
