// Package config provides configuration management for sprylog.
//
// This package loads, validates and exposes the log engine configuration
// from YAML files with environment variable overrides.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("sprylog.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("sprylog.yaml")
//
//  3. Tolerating a missing file (defaults + environment):
//     cfg, err := config.LoadOrDefault("sprylog.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SPRYLOG_SECTION_FIELD:
//
//   - SPRYLOG_LOGGER_API_FILE overrides logger.api_file
//   - SPRYLOG_LOGGER_MAX_LINES overrides logger.max_lines
//   - SPRYLOG_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Zero Values
//
// The YAML document is decoded on top of Defaults, so an explicit
// "max_lines: 0" disables rotation and "max_archives: 0" keeps every
// archive, while omitting them keeps 5000 and 10.
//
// # Example Configuration
//
//	logger:
//	  api_file: /var/log/spry/api.log
//	  error_file: /var/log/spry/php.log
//	  max_lines: 5000
//	  archive: true
//	  max_archives: 10
//	  prefix:
//	    stop: "API STOPPED: "
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
//
//	server:
//	  listen_address: 127.0.0.1:9464
//	  rate_limit: 600
package config
