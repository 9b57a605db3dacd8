package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

func TestOrderEvent_RoutingKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	order := &models.Order{
		ID:            "order-1",
		OrderNumber:   "ORD-000001-AB12",
		UserID:        "user-1",
		Status:        models.StatusDelivered,
		PaymentStatus: models.PaymentPending,
		Total:         6000,
		CreatedAt:     now,
		UpdatedAt:     now.Add(time.Hour),
	}

	created := OrderCreated(order)
	assert.Equal(t, "order.created", created.RoutingKey())
	assert.Equal(t, now, created.OccurredAt)
	assert.NotEmpty(t, created.ID)

	changed := StatusChanged(order, models.StatusOutForDelivery)
	assert.Equal(t, "order.status_changed.delivered", changed.RoutingKey())
	assert.Equal(t, models.StatusOutForDelivery, changed.PreviousStatus)
	assert.Equal(t, now.Add(time.Hour), changed.OccurredAt)

	paid := PaymentUpdated(order)
	assert.Equal(t, "order.payment_updated", paid.RoutingKey())
}
