// Sprylog writes categorised API logs and classified runtime error logs,
// and rotates them by line count into gzip archives.
//
// Usage:
//
//	# Write an entry to the API log
//	sprylog log message "cache warmed"
//
//	# Log request parameters (sensitive keys are masked)
//	sprylog request user=alice password=secret
//
//	# Rotate the configured log files if they are over the limit
//	sprylog rotate
//
//	# Inspect archives
//	sprylog archives list --output json
//
//	# Follow the error log across rotations
//	sprylog tail --error
//
//	# Run the sidecar: scheduled sweeps, /metrics, /healthz, /ping
//	sprylog serve --config /etc/sprylog/sprylog.yaml
package main

func main() {
	Execute()
}
