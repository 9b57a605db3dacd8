package models

import "time"

// OrderStatus is the operational state of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists the statuses in canonical lifecycle order, cancelled last.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMobileMoneyA PaymentMethod = "mobile_money_a"
	PaymentMobileMoneyB PaymentMethod = "mobile_money_b"
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMobileMoneyA, PaymentMobileMoneyB, PaymentCash, PaymentCard:
		return true
	}
	return false
}

// PaymentStatus tracks the opaque confirmation signal from the payment side.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// DeliveryAddress is where an order is delivered.
type DeliveryAddress struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Phone        string `json:"phone"`
	Instructions string `json:"instructions,omitempty"`
}

// CartItem is a single requested line in an incoming order.
type CartItem struct {
	ProductID     string   `json:"productId"`
	Quantity      int      `json:"quantity"`
	SizeID        string   `json:"sizeId"`
	ToppingIDs    []string `json:"toppingIds,omitempty"`
	Customization string   `json:"customization,omitempty"`
}

// OrderRequest represents an incoming order request.
type OrderRequest struct {
	Items           []CartItem      `json:"items"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
}

// OrderTopping is a topping captured by name and price at order time.
type OrderTopping struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// OrderItem is an immutable priced line of a placed order. Product name and prices are
// snapshotted so later catalog edits never change historical orders.
type OrderItem struct {
	ProductID      string         `json:"productId"`
	ProductName    string         `json:"productName"`
	BasePrice      int64          `json:"basePrice"`
	Quantity       int            `json:"quantity"`
	SizeID         string         `json:"sizeId"`
	SizeName       string         `json:"sizeName"`
	SizePriceDelta int64          `json:"sizePriceDelta"`
	Toppings       []OrderTopping `json:"toppings"`
	Customization  string         `json:"customization,omitempty"`
	LineTotal      int64          `json:"lineTotal"`
}

// Order represents a placed order.
type Order struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"userId"`
	OrderNumber           string          `json:"orderNumber"`
	Items                 []OrderItem     `json:"items"`
	Subtotal              int64           `json:"subtotal"`
	DeliveryFee           int64           `json:"deliveryFee"`
	Total                 int64           `json:"total"`
	Status                OrderStatus     `json:"status"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus"`
	DeliveryAddress       DeliveryAddress `json:"deliveryAddress"`
	EstimatedDeliveryTime *time.Time      `json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time      `json:"actualDeliveryTime,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// StatusUpdateRequest is the staff payload for moving an order to a new status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}

// PaymentUpdateRequest is the staff payload for recording the payment outcome.
type PaymentUpdateRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}
