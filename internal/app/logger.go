package app

import (
	"io"
	"log/slog"
)

// newLogger builds the App's private logger from config. The App never
// touches slog's process-global default, so embedded and test instances keep
// their output separate.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

// parseLevel maps a config level string to its slog level. Unrecognized
// strings fall back to info; the CLI validates them before they get here.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
