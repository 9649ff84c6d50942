package diag

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/redact"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFormat represents the output format for diagnostics.
type LogFormat string

const (
	// FormatJSON outputs records in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs records in logfmt-style text.
	FormatText LogFormat = "text"
)

// Config contains configuration for the diagnostics Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text")
	Format string

	// AddSource includes file and line number in records
	AddSource bool

	// File enables size-based rotation into this file. Empty writes to Writer.
	File string

	// MaxSizeMB, MaxBackups, MaxAgeDays and Compress configure file rotation.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// RedactKeys extends the set of masked attribute keys.
	RedactKeys []string

	// Writer is the output writer when File is empty (defaults to os.Stderr)
	Writer io.Writer
}

// FromConfig converts the loaded configuration into a Config.
func FromConfig(cfg config.LoggingConfig, redactKeys []string) Config {
	return Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		RedactKeys: redactKeys,
	}
}

// Logger is a slog.Logger bound to its output. Close releases the rotated
// file, if any.
type Logger struct {
	*slog.Logger

	level  *slog.LevelVar
	closer io.Closer
}

// New creates a diagnostics Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	var (
		writer io.Writer
		closer io.Closer
	)
	switch {
	case cfg.File != "":
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writer, closer = rotator, rotator
	case cfg.Writer != nil:
		writer = cfg.Writer
	default:
		writer = os.Stderr
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	redactor := redact.New(cfg.RedactKeys...)
	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if redactor.IsSensitive(a.Key) {
				return slog.String(a.Key, redact.Mask)
			}
			return a
		},
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  levelVar,
		closer: closer,
	}, nil
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Close closes the rotated diagnostics file. It is a no-op for writer output.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// ParseFormat parses a log format string into LogFormat.
func ParseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
