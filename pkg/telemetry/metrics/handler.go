package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry at MetricsConfig.Path. Scrapes
// are themselves counted in promhttp_metric_handler_requests_total, and
// gathering errors are logged to the diagnostics logger while the rest of
// the registry is still served.
func (c *Collector) Handler() http.Handler {
	logger := slog.NewLogLogger(slog.Default().With("component", "metrics").Handler(), slog.LevelWarn)

	return promhttp.InstrumentMetricHandler(c.registry, promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
			ErrorLog:          logger,
			Registry:          c.registry,
		},
	))
}
