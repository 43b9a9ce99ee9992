package log

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// NewContext returns a copy of ctx carrying logger. The trace middleware uses
// it to hand each request a logger tagged with the request id.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or the default logger
// tagged with an "unknown" component.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return Wrap(slog.Default(), "unknown")
}
