// Package metrics provides Prometheus metrics for the sprylog engine.
//
// # Metrics
//
//   - sprylog_entries_written_total{category}: API and error entries written
//   - sprylog_write_failures_total{category}: entries that could not be written
//   - sprylog_errors_classified_total{kind}: runtime errors by classified kind
//   - sprylog_rotations_total{mode}: rotations ("archive" or "trim")
//   - sprylog_archives_pruned_total: archives removed by retention
//   - sprylog_archive_failures_total: archives that could not be written
//   - sprylog_http_requests_total{path,status}: sidecar requests
//   - sprylog_http_request_duration_seconds{path}: sidecar latency
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	logger := logging.New(cfg.Logger,
//		logging.WithObserver(collector),
//		logging.WithArchiveObserver(collector),
//	)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// When metrics are disabled in the configuration, every Record method is a
// no-op and the registry stays empty of samples.
package metrics
