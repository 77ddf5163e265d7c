package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts check runs and flagged anomalies.
type Metrics struct {
	runs      *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates the pipeline metrics and registers them with reg.
// Pass nil to keep the metrics unregistered (tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godriftml",
			Name:      "check_runs_total",
			Help:      "Check runs by outcome.",
		}, []string{"outcome"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godriftml",
			Name:      "anomalies_total",
			Help:      "Anomalies flagged, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "godriftml",
			Name:      "check_duration_seconds",
			Help:      "Wall time of a full check run.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.anomalies, m.duration)
	}
	return m
}

func (m *Metrics) observeRun(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) observeAnomaly(kind string) {
	if m == nil {
		return
	}
	m.anomalies.WithLabelValues(kind).Inc()
}
