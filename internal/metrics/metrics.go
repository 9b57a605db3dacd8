package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the order backend.
// Methods are safe to call on a nil *Metrics so callers can run without instrumentation.
type Metrics struct {
	OrdersCreated     *prometheus.CounterVec
	OrdersRejected    *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	PaymentUpdates    *prometheus.CounterVec
	FeeResolutions    *prometheus.CounterVec
	OrderValue        prometheus.Histogram
	EventPublishFails prometheus.Counter
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "food_orders_created_total",
			Help: "Total number of orders placed, by payment method",
		}, []string{"payment_method"}),
		OrdersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "food_orders_rejected_total",
			Help: "Total number of order creations aborted, by reason",
		}, []string{"reason"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "food_order_status_transitions_total",
			Help: "Total number of order status transitions, by source and target status",
		}, []string{"from", "to"}),
		PaymentUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "food_order_payment_updates_total",
			Help: "Total number of payment status updates, by resulting status",
		}, []string{"status"}),
		FeeResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "food_delivery_fee_resolutions_total",
			Help: "Delivery fee lookups, by outcome",
		}, []string{"result"}),
		OrderValue: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "food_order_total_minor_units",
			Help:    "Order totals in currency minor units",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		}),
		EventPublishFails: factory.NewCounter(prometheus.CounterOpts{
			Name: "food_order_event_publish_failures_total",
			Help: "Order events that could not be handed to the broker",
		}),
	}
}

func (m *Metrics) RecordOrderCreated(paymentMethod string, total int64) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(paymentMethod).Inc()
	m.OrderValue.Observe(float64(total))
}

func (m *Metrics) RecordOrderRejected(reason string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordPaymentUpdate(status string) {
	if m == nil {
		return
	}
	m.PaymentUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordFeeResolution(result string) {
	if m == nil {
		return
	}
	m.FeeResolutions.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordEventPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFails.Inc()
}
