package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// NewLogger creates a structured logger with JSON output. The level comes
// from LOG_LEVEL ("debug" enables debug, anything else is info). Source
// locations are attached at warn and above.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions()))
}

// NewTextLogger creates a logger with human-readable text output for local
// development.
func NewTextLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, handlerOptions()))
}

func handlerOptions() *slog.HandlerOptions {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	return &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	}
}

type contextKey string

const (
	loggerContextKey     contextKey = "logger"
	dispatchIDContextKey contextKey = "dispatch_id"
)

// WithDispatchID attaches a fresh dispatch ID to the context, identifying
// one pipeline run across its log entries.
func WithDispatchID(ctx context.Context) context.Context {
	return context.WithValue(ctx, dispatchIDContextKey, uuid.New().String())
}

// DispatchIDFromContext returns the dispatch ID, or "" when none is set.
func DispatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(dispatchIDContextKey).(string); ok {
		return id
	}
	return ""
}

// WithDispatchLogger returns a logger carrying the context's dispatch ID.
func WithDispatchLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	id := DispatchIDFromContext(ctx)
	if id == "" {
		return logger
	}
	return logger.With(slog.String("dispatch_id", id))
}

// FromContext retrieves the logger from the context, falling back to the
// process default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}
