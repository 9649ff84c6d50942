package config

import "time"

// Config is the root configuration structure for sprylog.
// It contains the log engine settings, the engine's own diagnostics and
// metrics settings, and the optional sidecar server settings.
type Config struct {
	// Logger contains the API log and error log settings: destinations,
	// line templates, rotation thresholds, archive retention and prefixes.
	Logger LoggerConfig `yaml:"logger"`

	// Telemetry contains configuration for the engine's own observability:
	// diagnostic logging and Prometheus metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Server contains configuration for the sidecar HTTP server started by
	// `sprylog serve`.
	Server ServerConfig `yaml:"server"`
}

// LoggerConfig contains the log engine configuration. It is resolved once at
// process start and treated as read-only afterwards.
type LoggerConfig struct {
	// APIFile is the destination of message/warning/error/stop/request/response
	// entries. An empty value disables API logging.
	APIFile string `yaml:"api_file"`

	// ErrorFile is the destination of classified runtime errors. An empty
	// value disables error logging and the runtime error handlers.
	ErrorFile string `yaml:"error_file"`

	// Format is the API line template.
	// Placeholders: %date_time% %ip% %request_id% %path% %msg%
	// Default: "%date_time% %ip% %request_id% %path% - %msg%"
	Format string `yaml:"format"`

	// ErrorFormat is the error line template.
	// Placeholders: %date_time% %ip% %request_id% %errno% %errstr% %errfile% %errline% %backtrace%
	// Default: "%date_time% %errstr% %errfile% [Line: %errline%]\n%backtrace%"
	ErrorFormat string `yaml:"error_format"`

	// MaxLines is the line count above which a log file is rotated.
	// 0 disables rotation.
	// Default: 5000
	MaxLines int `yaml:"max_lines"`

	// Archive selects full rollover into gzip archives (true) instead of
	// trimming the live file to its last MaxLines lines (false).
	// Default: false
	Archive bool `yaml:"archive"`

	// MaxArchives is the number of archives retained per log file.
	// 0 keeps every archive.
	// Default: 10
	MaxArchives int `yaml:"max_archives"`

	// Prefix maps an entry category to the prefix written before its message.
	// Missing categories fall back to the built-in prefixes.
	Prefix map[string]string `yaml:"prefix"`

	// LogNonInteractive controls whether entries are written when the
	// process runs without a request (CLI, cron, background workers).
	// Unset means true; read it through LogsNonInteractive.
	// Default: true
	LogNonInteractive *bool `yaml:"log_noninteractive"`

	// FileLock serialises rotate-then-append across processes with an
	// advisory flock(2) on "<file>.lock".
	// Unset means true; read it through UsesFileLock.
	// Default: true
	FileLock *bool `yaml:"file_lock"`

	// BacktraceDepth caps the number of frames rendered in a backtrace.
	// Default: 10
	BacktraceDepth int `yaml:"backtrace_depth"`

	// RedactKeys adds request parameter names to the built-in redaction set.
	RedactKeys []string `yaml:"redact_keys"`

	// SweepSchedule is a cron expression for the sidecar rotation sweep.
	// Empty disables the sweep.
	// Example: "*/5 * * * *"
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TelemetryConfig contains configuration for the engine's own observability.
type TelemetryConfig struct {
	// Logging contains diagnostic logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains diagnostic logging configuration. This is the
// structured slog output of the engine, not the API/error log files.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// File sends diagnostics to a size-rotated file instead of stderr.
	File string `yaml:"file"`

	// MaxSizeMB is the diagnostics file size that triggers rotation.
	// Default: 10
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated diagnostics files kept.
	// Default: 3
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays removes rotated diagnostics files older than this.
	// Default: 28
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated diagnostics files.
	Compress bool `yaml:"compress"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "sprylog"
	Namespace string `yaml:"namespace"`
}

// ServerConfig contains configuration for the sidecar HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimit caps logged requests per client IP per minute.
	// Default: 0 (unlimited)
	RateLimit int `yaml:"rate_limit"`
}

// LogsNonInteractive reports whether entries are written outside a request.
func (c LoggerConfig) LogsNonInteractive() bool {
	return c.LogNonInteractive == nil || *c.LogNonInteractive
}

// UsesFileLock reports whether writes take the cross-process lock file.
func (c LoggerConfig) UsesFileLock() bool {
	return c.FileLock == nil || *c.FileLock
}

// Bool returns a pointer to b for the optional boolean settings.
func Bool(b bool) *bool {
	return &b
}
