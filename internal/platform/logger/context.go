package logger

import (
	"context"
	"log/slog"
)

// contextKey is an unexported type for the logger context key, preventing
// collisions with keys defined in other packages.
type contextKey struct{}

// WithLogger returns a copy of ctx carrying the given logger. Request
// handlers attach a logger enriched with request-scoped attributes so lower
// layers log with the same correlation fields.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, falling back to the process
// default logger when none is attached. The return value is never nil.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger stored in ctx, or the provided
// fallback when none is attached.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
