package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the process logger. Prod writes JSON with UTC timestamps
// for the log shipper; other environments write text, with source locations
// at debug level. Every record carries the service name.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var lvl slog.Level
	badLevel := level != "" && lvl.UnmarshalText([]byte(level)) != nil

	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, ReplaceAttr: utcTime})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug})
	}

	logger := slog.New(h).With(slog.String("service", "bharosa"))
	if badLevel {
		logger.Warn("unknown LOG_LEVEL, using info", "value", level)
	}
	return logger
}

func utcTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}
