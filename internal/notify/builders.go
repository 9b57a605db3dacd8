package notify

import (
	"fmt"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

var statusTitles = map[models.OrderStatus]string{
	models.StatusPending:        "Order received",
	models.StatusConfirmed:      "Order confirmed",
	models.StatusPreparing:      "Order being prepared",
	models.StatusReady:          "Order ready",
	models.StatusOutForDelivery: "Order out for delivery",
	models.StatusDelivered:      "Order delivered",
	models.StatusCancelled:      "Order cancelled",
}

// NewOrderNotifications builds the alerts for a newly placed order: one for staff and one for
// the customer who placed it.
func NewOrderNotifications(o models.Order) []models.Notification {
	return []models.Notification{
		{
			Type:        models.NotificationNewOrder,
			Title:       "New order",
			Message:     fmt.Sprintf("Order %s: %d item(s), total %d", o.OrderNumber, itemCount(o), o.Total),
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			OrderStatus: o.Status,
			TargetRole:  models.RoleAdmin,
			Priority:    models.PriorityHigh,
		},
		{
			Type:         models.NotificationOrderPlaced,
			Title:        "Order placed",
			Message:      fmt.Sprintf("Your order %s has been placed", o.OrderNumber),
			OrderID:      o.ID,
			OrderNumber:  o.OrderNumber,
			OrderStatus:  o.Status,
			TargetRole:   models.RoleCustomer,
			TargetUserID: o.UserID,
			Priority:     models.PriorityMedium,
		},
	}
}

// StatusChangeNotification builds the customer alert for an order reaching its current status
func StatusChangeNotification(o models.Order) models.Notification {
	title, ok := statusTitles[o.Status]
	if !ok {
		title = "Order updated"
	}
	return models.Notification{
		Type:         models.StatusNotificationType(o.Status),
		Title:        title,
		Message:      fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status),
		OrderID:      o.ID,
		OrderNumber:  o.OrderNumber,
		OrderStatus:  o.Status,
		TargetRole:   models.RoleCustomer,
		TargetUserID: o.UserID,
		Priority:     statusPriority(o.Status),
	}
}

func statusPriority(status models.OrderStatus) models.Priority {
	switch status {
	case models.StatusReady, models.StatusOutForDelivery, models.StatusDelivered, models.StatusCancelled:
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

func itemCount(o models.Order) int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
