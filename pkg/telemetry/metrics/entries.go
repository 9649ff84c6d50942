package metrics

import (
	"time"

	"spry-hq/sprylog/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EntryMetrics tracks written and failed log entries.
//
// Metrics:
//   - sprylog_entries_written_total: Entries written by category
//   - sprylog_write_failures_total: Failed writes by category
//   - sprylog_errors_classified_total: Error entries by classified kind
type EntryMetrics struct {
	entriesWritten   *prometheus.CounterVec
	writeFailures    *prometheus.CounterVec
	errorsClassified *prometheus.CounterVec
}

// NewEntryMetrics creates and registers entry metrics with the provided registry.
func NewEntryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EntryMetrics {
	em := &EntryMetrics{
		entriesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "entries_written_total",
				Help:      "Total number of log entries written",
			},
			[]string{"category"},
		),

		writeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "write_failures_total",
				Help:      "Total number of log entries that could not be written",
			},
			[]string{"category"},
		),

		errorsClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "errors_classified_total",
				Help:      "Total number of runtime errors logged by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(em.entriesWritten, em.writeFailures, em.errorsClassified)
	return em
}

// RecordEntry counts one written entry.
func (em *EntryMetrics) RecordEntry(category string) {
	em.entriesWritten.WithLabelValues(category).Inc()
}

// RecordFailure counts one failed write.
func (em *EntryMetrics) RecordFailure(category string) {
	em.writeFailures.WithLabelValues(category).Inc()
}

// RecordClassified counts one logged runtime error.
func (em *EntryMetrics) RecordClassified(kind string) {
	em.errorsClassified.WithLabelValues(kind).Inc()
}

// RotationMetrics tracks rotations and archive retention.
//
// Metrics:
//   - sprylog_rotations_total: Rotations by mode ("archive", "trim")
//   - sprylog_archives_pruned_total: Archives removed by retention
//   - sprylog_archive_failures_total: Archives that could not be written
type RotationMetrics struct {
	rotations       *prometheus.CounterVec
	archivesPruned  prometheus.Counter
	archiveFailures prometheus.Counter
}

// NewRotationMetrics creates and registers rotation metrics with the provided registry.
func NewRotationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RotationMetrics {
	rm := &RotationMetrics{
		rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rotations_total",
				Help:      "Total number of log file rotations",
			},
			[]string{"mode"},
		),

		archivesPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "archives_pruned_total",
				Help:      "Total number of archives removed by retention",
			},
		),

		archiveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "archive_failures_total",
				Help:      "Total number of archives that could not be written",
			},
		),
	}

	registry.MustRegister(rm.rotations, rm.archivesPruned, rm.archiveFailures)
	return rm
}

// RecordRotation counts one rotation.
func (rm *RotationMetrics) RecordRotation(mode string, pruned int) {
	rm.rotations.WithLabelValues(mode).Inc()
	if pruned > 0 {
		rm.archivesPruned.Add(float64(pruned))
	}
}

// RecordFailure counts one failed archive write.
func (rm *RotationMetrics) RecordFailure() {
	rm.archiveFailures.Inc()
}

// HTTPMetrics tracks requests served by the sidecar.
//
// Metrics:
//   - sprylog_http_requests_total: Requests by path and status code
//   - sprylog_http_request_duration_seconds: Request duration histogram
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"path", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"path"},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration)
	return hm
}

// RecordRequest records one served request.
func (hm *HTTPMetrics) RecordRequest(path, status string, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(path, status).Inc()
	hm.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
