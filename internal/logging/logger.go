// Package logging provides structured logging configuration using log/slog.
//
// Every mutating engine operation carries an operation id on its context.
// FromContext attaches that id to log entries so that all lines written for
// one import or export can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey int

const operationIDKey ctxKey = iota

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination. The CLI writes command
// output to stdout, so logs go to stderr by default.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithOperationID returns a context carrying the given operation id.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationID returns the operation id stored in ctx, or "".
func OperationID(ctx context.Context) string {
	id, _ := ctx.Value(operationIDKey).(string)
	return id
}

// FromContext returns a logger enriched with operation context.
//
// When ctx carries an operation id, the returned logger includes op_id in
// all log entries.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("import completed", "added", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if id := OperationID(ctx); id != "" {
		logger = logger.With("op_id", id)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	opLogger := logging.WithFields(ctx,
//	    "operation", "export",
//	    "mode", mode,
//	)
//	opLogger.Info("export started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
