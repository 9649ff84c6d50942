package config

import "time"

// Default values for configuration fields.
const (
	// Logger defaults
	DefaultFormat            = "%date_time% %ip% %request_id% %path% - %msg%"
	DefaultErrorFormat       = "%date_time% %errstr% %errfile% [Line: %errline%]\n%backtrace%"
	DefaultMaxLines          = 5000
	DefaultArchive           = false
	DefaultMaxArchives       = 10
	DefaultLogNonInteractive = true
	DefaultFileLock          = true
	DefaultBacktraceDepth    = 10

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "text"
	DefaultLoggingMaxSizeMB  = 10
	DefaultLoggingMaxBackups = 3
	DefaultLoggingMaxAgeDays = 28
	DefaultMetricsEnabled    = true
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "sprylog"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9464"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Entry categories.
const (
	CategoryMessage  = "message"
	CategoryWarning  = "warning"
	CategoryError    = "error"
	CategoryStop     = "stop"
	CategoryResponse = "response"
	CategoryRequest  = "request"
)

// DefaultPrefixes returns the built-in prefix for each entry category.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		CategoryMessage:  "Spry: ",
		CategoryWarning:  "Spry Warning: ",
		CategoryError:    "Spry ERROR: ",
		CategoryStop:     "Spry STOPPED: ",
		CategoryResponse: "Spry Response: ",
		CategoryRequest:  "Spry Request: ",
	}
}

// Defaults returns a Config populated with every default value.
// LoadConfig decodes YAML on top of it, so fields absent from the file keep
// their defaults while explicit zero values (max_lines: 0, archive: false)
// are honoured.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{
			Format:            DefaultFormat,
			ErrorFormat:       DefaultErrorFormat,
			MaxLines:          DefaultMaxLines,
			Archive:           DefaultArchive,
			MaxArchives:       DefaultMaxArchives,
			Prefix:            DefaultPrefixes(),
			LogNonInteractive: Bool(DefaultLogNonInteractive),
			FileLock:          Bool(DefaultFileLock),
			BacktraceDepth:    DefaultBacktraceDepth,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:      DefaultLoggingLevel,
				Format:     DefaultLoggingFormat,
				MaxSizeMB:  DefaultLoggingMaxSizeMB,
				MaxBackups: DefaultLoggingMaxBackups,
				MaxAgeDays: DefaultLoggingMaxAgeDays,
			},
			Metrics: MetricsConfig{
				Enabled:   DefaultMetricsEnabled,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
			},
		},
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// ApplyDefaults fills fields that were left empty in a Config built by hand
// or emptied by the YAML document. Integer thresholds where zero is
// meaningful (max_lines, max_archives) are left alone.
func ApplyDefaults(cfg *Config) {
	// Logger defaults
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = DefaultFormat
	}
	if cfg.Logger.ErrorFormat == "" {
		cfg.Logger.ErrorFormat = DefaultErrorFormat
	}
	if cfg.Logger.BacktraceDepth == 0 {
		cfg.Logger.BacktraceDepth = DefaultBacktraceDepth
	}
	if cfg.Logger.LogNonInteractive == nil {
		cfg.Logger.LogNonInteractive = Bool(DefaultLogNonInteractive)
	}
	if cfg.Logger.FileLock == nil {
		cfg.Logger.FileLock = Bool(DefaultFileLock)
	}
	if cfg.Logger.Prefix == nil {
		cfg.Logger.Prefix = make(map[string]string)
	}
	for category, prefix := range DefaultPrefixes() {
		if _, ok := cfg.Logger.Prefix[category]; !ok {
			cfg.Logger.Prefix[category] = prefix
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.MaxSizeMB == 0 {
		cfg.Telemetry.Logging.MaxSizeMB = DefaultLoggingMaxSizeMB
	}
	if cfg.Telemetry.Logging.MaxBackups == 0 {
		cfg.Telemetry.Logging.MaxBackups = DefaultLoggingMaxBackups
	}
	if cfg.Telemetry.Logging.MaxAgeDays == 0 {
		cfg.Telemetry.Logging.MaxAgeDays = DefaultLoggingMaxAgeDays
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}
