package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "thala"

// Metrics holds the service collectors. Tests build their own with a private registry.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthOutcomes    *prometheus.CounterVec
	RateLimit       *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
			[]string{"method", "route"},
		),
		AuthOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "auth_outcomes_total", Help: "Authentication results by operation and outcome."},
			[]string{"operation", "outcome"},
		),
		RateLimit: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_total", Help: "Rate limiter decisions."},
			[]string{"result"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Requests, m.RequestDuration, m.AuthOutcomes, m.RateLimit} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(operation, outcome).Inc()
}
