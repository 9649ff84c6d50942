// Package logging is the public entry point of the log engine.
//
// A Logger writes two files. The API log receives categorised entries
// (message, warning, error, stop, request, response), each prefixed with its
// category prefix and rendered through the API line template:
//
//	l := logging.New(cfg.Logger)
//	l.Message(ctx, "cache warmed")
//	l.Stop(ctx, logging.Response{Code: 403, Messages: []string{"forbidden"}})
//
// The error log receives runtime errors, classified by package errclass and
// rendered through the error template with a backtrace.
//
// Request metadata (id, path, remote address, parameters) travels in the
// context; see WithRequest. Request parameters are redacted before they are
// dumped.
//
// Logging never fails the caller. Every method reports whether an entry was
// written; failures go to the diagnostics logger and to observers.
//
// Runtime attaches a Logger to a host through the Registrar interface and
// guarantees the hooks are registered once per process.
package logging
