package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/events"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
)

// TransitionPolicy decides whether an order may move from one status to another
type TransitionPolicy interface {
	Allow(from, to models.OrderStatus) bool
}

// PermissiveTransitions lets a non-terminal order move to any status, including jumps such as
// pending → delivered. Terminal orders (delivered, cancelled) stay where they are.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Allow(from, to models.OrderStatus) bool {
	return !from.IsTerminal() && to.Valid()
}

// StrictTransitions only follows the canonical forward graph: one step at a time along
// pending → confirmed → preparing → ready → out_for_delivery → delivered, or to cancelled.
type StrictTransitions struct{}

var forwardGraph = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:        models.StatusConfirmed,
	models.StatusConfirmed:      models.StatusPreparing,
	models.StatusPreparing:      models.StatusReady,
	models.StatusReady:          models.StatusOutForDelivery,
	models.StatusOutForDelivery: models.StatusDelivered,
}

func (StrictTransitions) Allow(from, to models.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	return to == models.StatusCancelled || forwardGraph[from] == to
}

// UpdateStatus moves an order to target. It is a staff operation; callers check the role.
// Moving into delivered stamps the actual delivery time. Concurrent updates are last write wins.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, target models.OrderStatus) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.target_status", string(target)))

	if !target.Valid() {
		err := fmt.Errorf("%w: unknown status %q", ErrValidationFailed, target)
		failSpan(span, err)
		return nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	previous := order.Status
	if previous == target && !previous.IsTerminal() {
		return order, nil
	}
	if !s.policy.Allow(previous, target) {
		err := fmt.Errorf("%w: %s → %s", ErrInvalidTransition, previous, target)
		failSpan(span, err)
		return nil, err
	}

	now := s.now().UTC()
	order.Status = target
	order.UpdatedAt = now
	if target == models.StatusDelivered {
		order.ActualDeliveryTime = &now
	}

	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			err = fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		} else {
			err = fmt.Errorf("update order %s: %w", orderID, err)
		}
		failSpan(span, err)
		return nil, err
	}

	s.metrics.RecordStatusTransition(string(previous), string(target))
	s.publish(ctx, events.StatusChanged(order, previous))
	s.logger.InfoContext(ctx, "order status updated",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"from", previous,
		"to", target,
	)
	return order, nil
}

// UpdatePaymentStatus records the opaque payment confirmation signal for an order.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdatePaymentStatus")
	defer span.End()

	if !status.Valid() {
		err := fmt.Errorf("%w: unknown payment status %q", ErrValidationFailed, status)
		failSpan(span, err)
		return nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	if order.PaymentStatus == status {
		return order, nil
	}

	order.PaymentStatus = status
	order.UpdatedAt = s.now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			err = fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		} else {
			err = fmt.Errorf("update order %s: %w", orderID, err)
		}
		failSpan(span, err)
		return nil, err
	}

	s.metrics.RecordPaymentUpdate(string(status))
	s.publish(ctx, events.PaymentUpdated(order))
	s.logger.InfoContext(ctx, "order payment updated",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"payment_status", status,
	)
	return order, nil
}
