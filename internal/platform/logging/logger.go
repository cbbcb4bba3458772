package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/platform/correlation"
	"github.com/lmittmann/tint"
)

// Logger is the application-wide structured logger instance.
var Logger *slog.Logger

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else falls back to info.
func ParseLevel(level string) slog.Level {
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

// NewHandler builds the handler for the given format: "json", "text" or
// "pretty" (colored console output, the default for a local companion app).
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly})
	}
	return correlation.NewHandler(handler)
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level, format string) {
	Logger = slog.New(NewHandler(os.Stdout, ParseLevel(level), format))
	slog.SetDefault(Logger)
}
