package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// Type names what happened to an order.
type Type string

const (
	TypeOrderCreated   Type = "order.created"
	TypeStatusChanged  Type = "order.status_changed"
	TypePaymentUpdated Type = "order.payment_updated"
)

// OrderEvent is the broker payload for an order lifecycle change.
type OrderEvent struct {
	ID             string               `json:"id"`
	Type           Type                 `json:"type"`
	OrderID        string               `json:"orderId"`
	OrderNumber    string               `json:"orderNumber"`
	UserID         string               `json:"userId"`
	Status         models.OrderStatus   `json:"status"`
	PreviousStatus models.OrderStatus   `json:"previousStatus,omitempty"`
	PaymentStatus  models.PaymentStatus `json:"paymentStatus"`
	Total          int64                `json:"total"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

// RoutingKey is the topic key, e.g. order.created or order.status_changed.delivered.
func (e OrderEvent) RoutingKey() string {
	if e.Type == TypeStatusChanged {
		return string(e.Type) + "." + string(e.Status)
	}
	return string(e.Type)
}

func newEvent(t Type, order *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		ID:            uuid.NewString(),
		Type:          t,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		OccurredAt:    at,
	}
}

// OrderCreated builds the event for a freshly persisted order.
func OrderCreated(order *models.Order) OrderEvent {
	return newEvent(TypeOrderCreated, order, order.CreatedAt)
}

// StatusChanged builds the event for a status transition out of previous.
func StatusChanged(order *models.Order, previous models.OrderStatus) OrderEvent {
	e := newEvent(TypeStatusChanged, order, order.UpdatedAt)
	e.PreviousStatus = previous
	return e
}

// PaymentUpdated builds the event for a payment status change.
func PaymentUpdated(order *models.Order) OrderEvent {
	return newEvent(TypePaymentUpdated, order, order.UpdatedAt)
}

// LogPublisher writes events to the log instead of a broker. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event OrderEvent) error {
	p.logger.DebugContext(ctx, "order event",
		"event_type", event.Type,
		"routing_key", event.RoutingKey(),
		"order_number", event.OrderNumber,
		"status", event.Status,
	)
	return nil
}
