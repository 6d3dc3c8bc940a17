package config

import (
	"io"
	"log/slog"

	"git.home.luguber.info/inful/rptl/internal/foundation/normalization"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Upper-case spellings such as INFO and WARNING are accepted for
// compatibility with existing service units.
var logLevelNormalizer = normalization.NewNormalizer(map[string]slog.Level{
	"debug":    slog.LevelDebug,
	"info":     slog.LevelInfo,
	"warn":     slog.LevelWarn,
	"warning":  slog.LevelWarn,
	"error":    slog.LevelError,
	"critical": slog.LevelError,
}, slog.LevelInfo)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

// ParseLogLevel maps a user supplied level name to a slog level.
func ParseLogLevel(raw string) (slog.Level, error) {
	return logLevelNormalizer.NormalizeWithError(raw)
}

// NewLogger builds the process logger for the given level and format.
// Unknown values fall back to info and text.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevelNormalizer.Normalize(level)}
	if logFormatNormalizer.Normalize(format) == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
