// ABOUTME: Structured logging setup for the vmic binary
// ABOUTME: Configures the global slog handler and hands out component loggers
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// KeyComponent is the attribute naming the subsystem that logged
const KeyComponent = "component"

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Setup configures the global logger. format is "text" or "json"; w may be
// nil for stdout.
func Setup(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (supported: text, json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// L returns the default logger tagged with component. Call after Setup.
func L(component string) *slog.Logger {
	return slog.Default().With(KeyComponent, component)
}
