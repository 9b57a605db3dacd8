package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// OrderFilter narrows order listings. Zero values match everything.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
}

func (f OrderFilter) matches(o models.Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

// OrderRepository is the order record store: create, find and update by id.
// Orders are never deleted. Listings are newest first.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
}

// InMemoryOrderRepository implements OrderRepository with in-memory storage.
// Order numbers are unique, mirroring the database constraint.
type InMemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[string]models.Order
	byNumber map[string]string
}

// NewInMemoryOrderRepository creates an empty order repository
func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders:   make(map[string]models.Order),
		byNumber: make(map[string]string),
	}
}

// Create stores a new order, rejecting a reused order number
func (r *InMemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("insert order: %w", ErrDuplicateOrderID)
	}
	if _, exists := r.byNumber[order.OrderNumber]; exists {
		return ErrDuplicateOrderNumber
	}
	r.orders[order.ID] = cloneOrder(*order)
	r.byNumber[order.OrderNumber] = order.ID
	return nil
}

// FindByID returns an order by its ID
func (r *InMemoryOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	clone := cloneOrder(order)
	return &clone, nil
}

// Update replaces the stored order. Last write wins.
func (r *InMemoryOrderRepository) Update(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; !exists {
		return ErrOrderNotFound
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// List returns the orders matching filter, newest first
func (r *InMemoryOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.matches(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].OrderNumber > orders[j].OrderNumber
	})
	return orders, nil
}

// Count returns the number of stored orders
func (r *InMemoryOrderRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Toppings = append([]models.OrderTopping(nil), item.Toppings...)
		items[i] = item
	}
	o.Items = items
	if o.EstimatedDeliveryTime != nil {
		t := *o.EstimatedDeliveryTime
		o.EstimatedDeliveryTime = &t
	}
	if o.ActualDeliveryTime != nil {
		t := *o.ActualDeliveryTime
		o.ActualDeliveryTime = &t
	}
	return o
}
