package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "logger.max_lines").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any rule fails. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLogger(&cfg.Logger)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateLogger validates the log engine configuration. Empty file paths are
// valid: they turn the corresponding log into a no-op.
func validateLogger(cfg *LoggerConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxLines < 0 {
		errs = append(errs, FieldError{
			Field:   "logger.max_lines",
			Message: "must be >= 0 (0 disables rotation)",
		})
	}
	if cfg.MaxArchives < 0 {
		errs = append(errs, FieldError{
			Field:   "logger.max_archives",
			Message: "must be >= 0 (0 keeps every archive)",
		})
	}
	if cfg.BacktraceDepth < 0 {
		errs = append(errs, FieldError{
			Field:   "logger.backtrace_depth",
			Message: "must be >= 0",
		})
	}
	if cfg.APIFile != "" && cfg.APIFile == cfg.ErrorFile {
		errs = append(errs, FieldError{
			Field:   "logger.error_file",
			Message: "must differ from logger.api_file",
		})
	}
	for category := range cfg.Prefix {
		if !isCategory(category) {
			errs = append(errs, FieldError{
				Field:   "logger.prefix." + category,
				Message: "unknown category (expected message, warning, error, stop, response, request)",
			})
		}
	}
	if cfg.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "logger.sweep_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateTelemetry validates diagnostics and metrics configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (expected debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (expected json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}

	return errs
}

// validateServer validates sidecar server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "must be >= 0",
		})
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "server.rate_limit",
			Message: "must be >= 0",
		})
	}

	return errs
}

func isCategory(category string) bool {
	switch category {
	case CategoryMessage, CategoryWarning, CategoryError, CategoryStop, CategoryResponse, CategoryRequest:
		return true
	}
	return false
}
