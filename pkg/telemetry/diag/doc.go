// Package diag builds the engine's own structured diagnostics logger.
//
// Diagnostics are the slog records sprylog emits about itself (rotation
// failures, sweep results, server lifecycle). They are separate from the
// API and error log files the engine writes on behalf of an application.
//
// # Usage
//
//	logger, err := diag.New(diag.Config{
//	    Level:  "info",
//	    Format: "json",
//	    File:   "/var/log/sprylog/diag.log",
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	slog.SetDefault(logger.Logger)
//
// # Output
//
// With File empty, records go to the configured Writer (stderr by default).
// Otherwise they go to a size-rotated file managed by lumberjack.
//
// # Redaction
//
// Attributes whose key is a sensitive parameter name ("password", "token",
// "api_key", ...) are masked before they are written:
//
//	logger.Info("login", "password", "hunter2") // password=xxxxxx...
package diag
