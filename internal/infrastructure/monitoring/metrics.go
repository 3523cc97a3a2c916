// Package monitoring exposes Prometheus metrics for the engine.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionSaves     prometheus.Counter
	SessionLoads     prometheus.Counter
	SessionBootstrap prometheus.Counter

	// Workset metrics
	WorksetsActive  prometheus.Gauge
	WorksetDisplays prometheus.Counter
	WorksetDeletes  prometheus.Counter
	BackupsWritten  prometheus.Counter

	registry  *prometheus.Registry
	startTime time.Time
}

// NewMetrics creates a metrics collector with its own registry, so tests
// can create collectors without duplicate-registration panics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worksetsd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worksetsd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),

		SessionSaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "worksetsd_session_saves_total",
			Help: "Total session documents written",
		}),
		SessionLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "worksetsd_session_loads_total",
			Help: "Total session documents loaded",
		}),
		SessionBootstrap: factory.NewCounter(prometheus.CounterOpts{
			Name: "worksetsd_session_bootstraps_total",
			Help: "Sessions bootstrapped because no usable document existed",
		}),

		WorksetsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worksetsd_worksets",
			Help: "Worksets in the active session",
		}),
		WorksetDisplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "worksetsd_workset_displays_total",
			Help: "Workset display operations",
		}),
		WorksetDeletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "worksetsd_workset_deletes_total",
			Help: "Workset delete operations",
		}),
		BackupsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "worksetsd_backups_written_total",
			Help: "Backup documents written",
		}),
	}
}

// Registry returns the Prometheus registry backing the collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Uptime returns how long the collector has been alive.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
