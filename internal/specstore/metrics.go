package specstore

import "github.com/prometheus/client_golang/prometheus"

const (
	sourceCache   = "cache"
	sourceNetwork = "network"
	sourceFile    = "file"
)

// Metrics counts description loads. A nil *Metrics records nothing.
type Metrics struct {
	Loads   *prometheus.CounterVec
	Reloads prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oclist",
			Subsystem: "spec",
			Name:      "loads_total",
			Help:      "API descriptions loaded, by source.",
		}, []string{"source"}),
		Reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oclist",
			Subsystem: "spec",
			Name:      "reloads_total",
			Help:      "Reloads triggered by a newer build number.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Loads, m.Reloads)
	}
	return m
}

func (m *Metrics) load(source string) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(source).Inc()
}

func (m *Metrics) reload() {
	if m == nil {
		return
	}
	m.Reloads.Inc()
}
