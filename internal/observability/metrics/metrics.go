package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the assistant's chat turns.
type ChatMetrics struct {
	turnsTotal   *prometheus.CounterVec
	turnLatency  *prometheus.HistogramVec
	recordsTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns processed",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicbot",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Latency of chat turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "records",
			Name:      "saved_total",
			Help:      "Total booking and cancellation records saved",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.recordsTotal)
	return m
}

func (m *ChatMetrics) ObserveTurn(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *ChatMetrics) ObserveRecord(kind string) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(kind).Inc()
}
