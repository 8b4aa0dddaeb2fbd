// Package debug carries the --debug switch through context and configures
// the process logger.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey struct{}

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, contextKey{}, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(contextKey{}).(bool); ok {
		return v
	}
	return false
}

// SetupLogger installs the default logger on stderr: Debug level when
// enabled, Warn otherwise. jsonLogs selects slog's JSON handler so logs stay
// machine readable next to --output json.
func SetupLogger(enabled, jsonLogs bool) {
	slog.SetDefault(NewLogger(os.Stderr, enabled, jsonLogs))
}

// NewLogger builds the logger SetupLogger installs.
func NewLogger(w io.Writer, enabled, jsonLogs bool) *slog.Logger {
	level := slog.LevelWarn
	if enabled {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var secretKeys = map[string]bool{
	"token":         true,
	"authorization": true,
	"password":      true,
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[a.Key] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, Redact(a.Value.String()))
	}
	return a
}

// Redact masks a secret, keeping the last four characters of long values.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
