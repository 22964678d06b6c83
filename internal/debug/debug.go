// Package debug provides context-based debug mode with structured logging.
package debug

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context or via the
// JMS_DEBUG environment variable.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return envEnabled()
}

func envEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("JMS_DEBUG"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// SetupLogger configures slog based on debug mode. The default level is
// warn: the SDK emits warning diagnostics on degraded responses, and those
// should be visible without flooding normal output.
func SetupLogger(debugEnabled bool) {
	var level slog.Level
	if debugEnabled {
		level = slog.LevelDebug
	} else {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
