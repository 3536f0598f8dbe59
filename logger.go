package mvt

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with mvt-specific helpers.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithLayer adds a layer name field to the logger.
func (l *Logger) WithLayer(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("layer", name),
	}
}

// LogAddLayer logs the outcome of Tile.AddLayer.
func (l *Logger) LogAddLayer(ctx context.Context, name string, features int, err error) {
	if err != nil {
		l.WarnContext(ctx, "layer rejected",
			"layer", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "layer added",
			"layer", name,
			"features", features,
		)
	}
}

// LogDuplicateID logs a rejected feature id.
func (l *Logger) LogDuplicateID(ctx context.Context, id uint64) {
	l.DebugContext(ctx, "duplicate feature id",
		"id", id,
	)
}

// LogEncode logs the outcome of a serialization attempt.
func (l *Logger) LogEncode(ctx context.Context, layers, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tile encode failed",
			"layers", layers,
			"bytes_written", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "tile encoded",
			"layers", layers,
			"bytes", bytes,
		)
	}
}
