package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// EntityUIDKey is the context key for the business entity UID a
	// request operates on
	EntityUIDKey contextKey = "entity_uid"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger
// if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithEntityUID adds the entity UID to context and returns enriched logger
func WithEntityUID(ctx context.Context, logger *zap.Logger, uid string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, EntityUIDKey, uid)
	enriched := logger.With(zap.String("entity_uid", uid))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetEntityUID retrieves the entity UID from context
func GetEntityUID(ctx context.Context) string {
	if uid, ok := ctx.Value(EntityUIDKey).(string); ok {
		return uid
	}
	return ""
}
