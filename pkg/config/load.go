package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The document is decoded on top of Defaults, remaining empty fields are
// filled by ApplyDefaults, and the result is validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SPRYLOG_SECTION_FIELD (e.g., SPRYLOG_LOGGER_API_FILE) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file on top of defaults
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like LoadConfigWithEnvOverrides but starts from the
// defaults when the file does not exist. Any other read or parse error is
// returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = Defaults()
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable numeric or boolean values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Logger overrides
	if val := os.Getenv("SPRYLOG_LOGGER_API_FILE"); val != "" {
		cfg.Logger.APIFile = val
	}
	if val := os.Getenv("SPRYLOG_LOGGER_ERROR_FILE"); val != "" {
		cfg.Logger.ErrorFile = val
	}
	if val := os.Getenv("SPRYLOG_LOGGER_FORMAT"); val != "" {
		cfg.Logger.Format = val
	}
	if val := os.Getenv("SPRYLOG_LOGGER_ERROR_FORMAT"); val != "" {
		cfg.Logger.ErrorFormat = val
	}
	if val := os.Getenv("SPRYLOG_LOGGER_MAX_LINES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Logger.MaxLines = i
		}
	}
	if val := os.Getenv("SPRYLOG_LOGGER_ARCHIVE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Logger.Archive = b
		}
	}
	if val := os.Getenv("SPRYLOG_LOGGER_MAX_ARCHIVES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Logger.MaxArchives = i
		}
	}
	if val := os.Getenv("SPRYLOG_LOGGER_LOG_NONINTERACTIVE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Logger.LogNonInteractive = Bool(b)
		}
	}
	if val := os.Getenv("SPRYLOG_LOGGER_FILE_LOCK"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Logger.FileLock = Bool(b)
		}
	}
	if val := os.Getenv("SPRYLOG_LOGGER_SWEEP_SCHEDULE"); val != "" {
		cfg.Logger.SweepSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("SPRYLOG_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SPRYLOG_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SPRYLOG_TELEMETRY_LOGGING_FILE"); val != "" {
		cfg.Telemetry.Logging.File = val
	}
	if val := os.Getenv("SPRYLOG_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}

	// Server overrides
	if val := os.Getenv("SPRYLOG_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SPRYLOG_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("SPRYLOG_SERVER_RATE_LIMIT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Server.RateLimit = n
		}
	}
}
