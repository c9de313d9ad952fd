package metrics

import "github.com/prometheus/client_golang/prometheus"

// Assignment outcomes.
const (
	AssignmentAssigned = "assigned"
	AssignmentRejected = "rejected"
)

// OrderMetrics tracks checkout volume, status transitions and assignments.
type OrderMetrics struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	assignments *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders placed at checkout by payment mode.",
	}, []string{"payment_mode"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status advances by target status.",
	}, []string{"to"})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_assignments_total",
		Help:      "Agent assignment attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(created, transitions, assignments)
	return &OrderMetrics{created: created, transitions: transitions, assignments: assignments}
}

// IncCreated counts a placed order.
func (o *OrderMetrics) IncCreated(paymentMode string) {
	if o == nil || o.created == nil {
		return
	}
	o.created.WithLabelValues(normalizeLabel(paymentMode)).Inc()
}

// IncTransition counts a status advance into status.
func (o *OrderMetrics) IncTransition(status string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncAssignment counts an assignment attempt with the given outcome.
func (o *OrderMetrics) IncAssignment(outcome string) {
	if o == nil || o.assignments == nil {
		return
	}
	o.assignments.WithLabelValues(normalizeLabel(outcome)).Inc()
}
