package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order status transitions and participation operations.
type OrderMetrics struct {
	transitions   *prometheus.CounterVec
	participation *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Group order status transitions.",
	}, []string{"from", "to"})
	participation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "participation_operations_total",
		Help:      "Participation engine operations by outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(transitions, participation)
	return &OrderMetrics{transitions: transitions, participation: participation}
}

// ObserveTransition records a status change.
func (m *OrderMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveOperation records a participation operation; outcome is "ok" or an error code.
func (m *OrderMetrics) ObserveOperation(operation, outcome string) {
	if m == nil || m.participation == nil {
		return
	}
	m.participation.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}
