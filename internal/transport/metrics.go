package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts outbound requests. A nil *Metrics records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oclist",
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and status code.",
		}, []string{"method", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "oclist",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Outbound API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration)
	}
	return m
}

func (m *Metrics) observe(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, status).Inc()
	m.Duration.WithLabelValues(method).Observe(d.Seconds())
}
