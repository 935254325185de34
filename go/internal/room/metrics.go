package room

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines the interface for collecting room metrics
type MetricsCollector interface {
	SetActiveRooms(n int)
	RecordRoundResolved(outcome string)
	RecordCommand(msgType MessageType, kind Kind)
	RecordPersistenceFailure(op string)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) SetActiveRooms(n int)                         {}
func (NoOpMetricsCollector) RecordRoundResolved(outcome string)           {}
func (NoOpMetricsCollector) RecordCommand(msgType MessageType, kind Kind) {}
func (NoOpMetricsCollector) RecordPersistenceFailure(op string)           {}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	activeRooms     prometheus.Gauge
	roundsResolved  *prometheus.CounterVec
	commands        *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jokenpo",
			Name:      "active_rooms",
			Help:      "Rooms currently held in the live registry.",
		}),
		roundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jokenpo",
			Name:      "rounds_resolved_total",
			Help:      "Rounds resolved, by outcome.",
		}, []string{"outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jokenpo",
			Name:      "commands_total",
			Help:      "Inbound commands, by type and result.",
		}, []string{"type", "result"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jokenpo",
			Name:      "persistence_failures_total",
			Help:      "Failed durable-store calls, by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.activeRooms, m.roundsResolved, m.commands, m.persistFailures)
	return m
}

func (m *PrometheusMetrics) SetActiveRooms(n int) {
	m.activeRooms.Set(float64(n))
}

func (m *PrometheusMetrics) RecordRoundResolved(outcome string) {
	m.roundsResolved.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) RecordCommand(msgType MessageType, kind Kind) {
	result := "ok"
	if kind != "" {
		result = string(kind)
	}
	m.commands.WithLabelValues(string(msgType), result).Inc()
}

func (m *PrometheusMetrics) RecordPersistenceFailure(op string) {
	m.persistFailures.WithLabelValues(op).Inc()
}
