// Package metrics exposes Prometheus metrics for the gateway operations.
//
// Metrics:
//   - <ns>_requests_total{operation,outcome}: finished requests by outcome
//   - <ns>_request_duration_seconds{operation}: time from accept to last byte
//   - <ns>_stream_fragments_total: fragments forwarded to streaming callers
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels that are not failure kinds.
const (
	OutcomeOK          = "ok"
	OutcomeCanceled    = "canceled"
	OutcomeUnavailable = "unavailable"
)

type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fragmentsTotal  prometheus.Counter
}

// NewCollector registers the gateway metrics on registry, or on a fresh
// registry when nil.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of gateway requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of gateway requests in seconds",
				// generation calls routinely take tens of seconds
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"operation"},
		),
		fragmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_fragments_total",
				Help:      "Total number of generated fragments forwarded to streaming callers",
			},
		),
	}
	registry.MustRegister(c.requestsTotal, c.requestDuration, c.fragmentsTotal)
	return c
}

// ObserveRequest records one finished request.
func (c *Collector) ObserveRequest(operation, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(operation, outcome).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// AddFragment counts one forwarded stream fragment.
func (c *Collector) AddFragment() {
	if c == nil {
		return
	}
	c.fragmentsTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
