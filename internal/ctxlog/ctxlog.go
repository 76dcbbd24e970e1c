// Package ctxlog carries a slog.Logger through context.Context so library
// code can log with the caller's attributes without threading a logger
// argument through every signature.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported so no other package can collide with or replace the
// stored logger.
type key struct{}

var loggerKey = key{}

// WithLogger returns a child context carrying the logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger stored by WithLogger. Contexts without
// one fall back to the process default logger, so callers can always log.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
