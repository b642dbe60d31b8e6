package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_dashboard"

// Metrics holds the Prometheus collectors for the proxy and history API.
type Metrics struct {
	// HTTP surface.
	HTTPRequests *prometheus.CounterVec   // labels: route, method, status
	HTTPDuration *prometheus.HistogramVec // labels: route

	// Provider calls.
	UpstreamRequests   *prometheus.CounterVec   // labels: endpoint={geocode,weather}, outcome={success,status_error,network_error}
	UpstreamDuration   *prometheus.HistogramVec // labels: endpoint
	UpstreamConfigured prometheus.Gauge

	// History store.
	HistorySaves *prometheus.CounterVec // labels: result={inserted,duplicate,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.UpstreamConfigured,
		m.HistorySaves,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build
// as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Weather provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		UpstreamConfigured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_credential_configured",
			Help:      "1 when the provider API key is set, 0 otherwise.",
		}),
		HistorySaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_saves_total",
			Help:      "Location history saves by result.",
		}, []string{"result"}),
	}
}
