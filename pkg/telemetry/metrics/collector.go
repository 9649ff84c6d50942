package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"spry-hq/sprylog/pkg/archive"
	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records Prometheus metrics for the log engine. It observes the
// facade (entries written, failed writes, classified errors), the archiver
// (rotations and retention) and the sidecar's HTTP traffic.
//
// Collector implements logging.Observer and archive.Observer.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	entryMetrics    *EntryMetrics
	rotationMetrics *RotationMetrics
	httpMetrics     *HTTPMetrics

	// Cardinality tracking for HTTP paths
	cardinalityLimiter *CardinalityLimiter
}

var (
	_ logging.Observer = (*Collector)(nil)
	_ archive.Observer = (*Collector)(nil)
)

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "sprylog",
//	}
//	collector := metrics.NewCollector(cfg, nil)
//	logger := logging.New(loggerCfg,
//		logging.WithObserver(collector),
//		logging.WithArchiveObserver(collector),
//	)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.entryMetrics = NewEntryMetrics(cfg, registry)
	c.rotationMetrics = NewRotationMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

// APILogWritten counts an API entry by category.
func (c *Collector) APILogWritten(e logging.APIEvent) {
	if !c.config.Enabled {
		return
	}
	c.entryMetrics.RecordEntry(e.Category)
}

// ErrorLogWritten counts an error entry by classified kind.
func (c *Collector) ErrorLogWritten(e logging.ErrorEvent) {
	if !c.config.Enabled {
		return
	}
	c.entryMetrics.RecordEntry(logging.CategoryPHP)
	c.entryMetrics.RecordClassified(string(e.Kind))
}

// WriteFailed counts a failed write by category.
func (c *Collector) WriteFailed(category string, _ error) {
	if !c.config.Enabled {
		return
	}
	c.entryMetrics.RecordFailure(category)
}

// RecordRotation counts a rotation by mode and the archives it pruned.
func (c *Collector) RecordRotation(mode archive.Mode, pruned int) {
	if !c.config.Enabled {
		return
	}
	c.rotationMetrics.RecordRotation(string(mode), pruned)
}

// RecordArchiveFailure counts an archive that could not be written.
func (c *Collector) RecordArchiveFailure() {
	if !c.config.Enabled {
		return
	}
	c.rotationMetrics.RecordFailure()
}

// RecordHTTPRequest records a request served by the sidecar.
//
// Parameters:
//   - path: Request path; aggregated into "other" beyond the cardinality limit
//   - status: HTTP status code
//   - duration: Time spent serving the request
func (c *Collector) RecordHTTPRequest(path string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(fmt.Sprintf("http:%s", path)) {
		path = "other"
	}
	c.httpMetrics.RecordRequest(path, strconv.Itoa(status), duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum number of unique label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet may be recorded. Known label sets are
// always allowed; new ones only while under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the number of tracked label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
