package protocol

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "frost"

// Metrics counts the activity of handlers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	messages *prometheus.CounterVec
	rounds   *prometheus.CounterVec
	sessions *prometheus.CounterVec
}

// NewMetrics creates the handler counters and registers them with reg.
// If reg is nil, the counters are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_total",
			Help:      "Protocol messages received, by protocol and result (accepted, queued, rejected).",
		}, []string{"protocol", "result"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rounds_total",
			Help:      "Rounds finalized, by protocol.",
		}, []string{"protocol"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_total",
			Help:      "Sessions finished, by protocol and result (done, aborted, failed, stopped).",
		}, []string{"protocol", "result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.messages, m.rounds, m.sessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) message(protocolID, result string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(protocolID, result).Inc()
}

func (m *Metrics) round(protocolID string) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(protocolID).Inc()
}

func (m *Metrics) session(protocolID, result string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(protocolID, result).Inc()
}
