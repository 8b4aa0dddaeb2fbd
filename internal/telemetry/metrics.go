// Package telemetry instruments API calls with Prometheus metrics and
// OpenTelemetry traces.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one CLI run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics registers the API collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamex_api_requests_total",
				Help: "Total number of backend API calls",
			},
			[]string{"operation", "method", "code"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gamex_api_request_duration_seconds",
				Help:    "Duration of backend API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	m.Registry.MustRegister(m.Requests, m.Duration)
	return m
}

// Observe records one call. status is 0 when no response was received.
func (m *Metrics) Observe(operation, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, method, codeLabel(status)).Inc()
	m.Duration.WithLabelValues(operation).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

func codeLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
