// Package telemetry groups the engine's own observability.
//
//   - diag: structured slog diagnostics with redaction and file rotation
//   - metrics: Prometheus counters for entries, rotations and sidecar traffic
//   - health: liveness and readiness endpoints for the sidecar
//
// None of these affect the API and error log files; a failure here never
// prevents an entry from being written.
package telemetry
