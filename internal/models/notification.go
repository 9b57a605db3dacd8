package models

import "time"

// Role is the audience a session belongs to.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleAll      Role = "all"
)

// Valid reports whether r can be carried by a session. RoleAll is only a notification target.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Priority drives how loudly a notification is signaled.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// NotificationType tags what happened.
type NotificationType string

const (
	NotificationNewOrder    NotificationType = "new_order"
	NotificationOrderPlaced NotificationType = "order_placed"
)

// StatusNotificationType is the type tag for an order reaching the given status.
func StatusNotificationType(status OrderStatus) NotificationType {
	return NotificationType("order_" + string(status))
}

// Notification is a client-local alert. It is a projection cache, never the system of record.
type Notification struct {
	ID           string           `json:"id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	OrderID      string           `json:"orderId,omitempty"`
	OrderNumber  string           `json:"orderNumber,omitempty"`
	OrderStatus  OrderStatus      `json:"orderStatus,omitempty"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"createdAt"`
	TargetRole   Role             `json:"targetRole"`
	TargetUserID string           `json:"targetUserId,omitempty"`
	Priority     Priority         `json:"priority"`
}
