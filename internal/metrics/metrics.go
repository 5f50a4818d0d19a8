package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's collectors and the registry serving them.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	graphCalls   *prometheus.CounterVec
	tokenResults *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		graphCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graph_requests_total",
				Help: "Microsoft Graph calls by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		tokenResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_acquisitions_total",
				Help: "Token acquisitions by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.graphCalls, m.tokenResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(path, method, status string, seconds float64) {
	m.requests.WithLabelValues(path, method, status).Inc()
	m.latency.WithLabelValues(path, method).Observe(seconds)
}

// ObserveGraph records one Graph call; outcome is e.g. "ok", "no_photo", "error".
func (m *Metrics) ObserveGraph(resource, outcome string) {
	m.graphCalls.WithLabelValues(resource, outcome).Inc()
}

// ObserveToken records one token acquisition; mode is "silent" or "auth_code".
func (m *Metrics) ObserveToken(mode, outcome string) {
	m.tokenResults.WithLabelValues(mode, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
