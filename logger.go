package segset

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with segset-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogLoad logs a record-set load.
func (l *Logger) LogLoad(ctx context.Context, value string, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "record set load failed",
			"value", value,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "record set loaded",
			"value", value,
			"segments", segments,
		)
	}
}

// LogFlush logs a deferred-update flush.
func (l *Logger) LogFlush(ctx context.Context, ops int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"ops", ops,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "flush completed",
			"ops", ops,
		)
	}
}

// LogWrite logs a record-set write.
func (l *Logger) LogWrite(ctx context.Context, value string, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "record set write failed",
			"value", value,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "record set written",
			"value", value,
			"segments", segments,
		)
	}
}
