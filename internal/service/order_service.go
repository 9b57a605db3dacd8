package service

//go:generate mockgen -source=order_service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/events"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/metrics"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
)

const (
	maxNoteLength      = 500
	maxItemsPerOrder   = 50
	maxQuantityPerItem = 99
	// maxOrderAmount bounds every price sum, in minor units
	maxOrderAmount        int64 = 1 << 40
	defaultNumberAttempts       = 5
)

// CatalogReader is the catalog snapshot accessor the assembler prices against
type CatalogReader interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// FeeResolver resolves the delivery fee of an address
type FeeResolver interface {
	ResolveFee(ctx context.Context, city, neighborhood string) (models.FeeQuote, error)
}

// OrderStore is the order record store
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
}

// EventPublisher hands order lifecycle events to the broker
type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}

// OrderService assembles, prices and persists orders, and drives their status afterwards
type OrderService struct {
	catalog   CatalogReader
	zones     FeeResolver
	orders    OrderStore
	numbers   *OrderNumberGenerator
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	policy    TransitionPolicy
	attempts  int
	now       func() time.Time
}

// Option configures an OrderService
type Option func(*OrderService)

// WithPublisher sets where order events go. Without it events are dropped.
func WithPublisher(p EventPublisher) Option {
	return func(s *OrderService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *OrderService) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *OrderService) { s.logger = l }
}

// WithTransitionPolicy replaces the default permissive status policy
func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *OrderService) { s.policy = p }
}

// WithNumberAttempts bounds how many order numbers are tried before giving up
func WithNumberAttempts(n int) Option {
	return func(s *OrderService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

// NewOrderService creates a new order service
func NewOrderService(catalog CatalogReader, zones FeeResolver, orders OrderStore, numbers *OrderNumberGenerator, opts ...Option) *OrderService {
	s := &OrderService{
		catalog:  catalog,
		zones:    zones,
		orders:   orders,
		numbers:  numbers,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:   PermissiveTransitions{},
		attempts: defaultNumberAttempts,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.numbers == nil {
		s.numbers = NewOrderNumberGenerator(orders, 0)
	}
	return s
}

// CreateOrder validates the cart against the catalog, prices it, resolves the delivery fee and
// persists the order as pending. Any failure aborts the whole operation; nothing is stored.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req models.OrderRequest) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	order, err := s.createOrder(ctx, userID, req)
	if err != nil {
		s.metrics.RecordOrderRejected(rejectReason(err))
		failSpan(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.number", order.OrderNumber),
		attribute.Int64("order.total", order.Total),
	)
	s.metrics.RecordOrderCreated(string(order.PaymentMethod), order.Total)
	s.publish(ctx, events.OrderCreated(order))
	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", order.UserID,
		"items_count", len(order.Items),
		"total", order.Total,
	)
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, userID string, req models.OrderRequest) (*models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal int64
	for i, cartItem := range req.Items {
		item, err := s.priceItem(ctx, cartItem)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, item)
		if subtotal, err = addAmount(subtotal, item.LineTotal); err != nil {
			return nil, err
		}
	}

	addr := normalizeAddress(req.DeliveryAddress)
	quote, err := s.zones.ResolveFee(ctx, addr.City, addr.Neighborhood)
	if err != nil {
		return nil, err
	}

	total, err := addAmount(subtotal, quote.Fee)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	eta := now.Add(time.Duration(quote.EstimatedMinutes) * time.Minute)
	order := &models.Order{
		ID:                    uuid.NewString(),
		UserID:                userID,
		Items:                 items,
		Subtotal:              subtotal,
		DeliveryFee:           quote.Fee,
		Total:                 total,
		Status:                models.StatusPending,
		PaymentMethod:         req.PaymentMethod,
		PaymentStatus:         models.PaymentPending,
		DeliveryAddress:       addr,
		EstimatedDeliveryTime: &eta,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// persist stores the order, drawing a new number whenever the store reports a clash.
func (s *OrderService) persist(ctx context.Context, order *models.Order) error {
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		number, err := s.numbers.Next(ctx, order.CreatedAt, attempt)
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		order.OrderNumber = number

		err = s.orders.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return fmt.Errorf("persist order: %w", err)
		}
		s.logger.WarnContext(ctx, "order number clash, retrying", "order_number", number, "attempt", attempt+1)
		lastErr = err
	}
	return fmt.Errorf("persist order after %d attempts: %w", s.attempts, lastErr)
}

// priceItem checks one cart line against the catalog and snapshots its prices.
// Size availability is checked before product availability, so an unavailable size is always
// reported as such whatever the product's own flag says.
func (s *OrderService) priceItem(ctx context.Context, item models.CartItem) (models.OrderItem, error) {
	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.OrderItem{}, fmt.Errorf("%w: product %s does not exist", ErrProductUnavailable, item.ProductID)
		}
		return models.OrderItem{}, fmt.Errorf("load product %s: %w", item.ProductID, err)
	}

	size, ok := product.Size(item.SizeID)
	if !ok || !size.Available {
		valid := product.AvailableSizeIDs()
		return models.OrderItem{}, fmt.Errorf("%w: size %q of %s cannot be ordered (available sizes: %s)",
			ErrSizeUnavailable, item.SizeID, product.Name, strings.Join(valid, ", "))
	}

	if !product.Available {
		return models.OrderItem{}, fmt.Errorf("%w: %s is not available", ErrProductUnavailable, product.Name)
	}

	unitPrice, err := addAmount(product.BasePrice, size.PriceDelta)
	if err != nil {
		return models.OrderItem{}, err
	}
	toppings := make([]models.OrderTopping, 0, len(item.ToppingIDs))
	seen := make(map[string]bool, len(item.ToppingIDs))
	for _, id := range item.ToppingIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		topping, ok := product.Topping(id)
		if !ok || !topping.Available {
			continue
		}
		toppings = append(toppings, models.OrderTopping{Name: topping.Name, Price: topping.Price})
		if unitPrice, err = addAmount(unitPrice, topping.Price); err != nil {
			return models.OrderItem{}, err
		}
	}

	lineTotal, err := mulAmount(unitPrice, int64(item.Quantity))
	if err != nil {
		return models.OrderItem{}, err
	}

	return models.OrderItem{
		ProductID:      product.ID,
		ProductName:    product.Name,
		BasePrice:      product.BasePrice,
		Quantity:       item.Quantity,
		SizeID:         size.ID,
		SizeName:       size.Name,
		SizePriceDelta: size.PriceDelta,
		Toppings:       toppings,
		Customization:  strings.TrimSpace(item.Customization),
		LineTotal:      lineTotal,
	}, nil
}

// GetOrder returns an order by id
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return order, nil
}

// ListUserOrders returns the orders owned by userID, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.orders.List(ctx, repository.OrderFilter{UserID: userID})
}

// ListAllOrders returns every order, optionally narrowed to one status, newest first
func (s *OrderService) ListAllOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, status)
	}
	return s.orders.List(ctx, repository.OrderFilter{Status: status})
}

// publish is best effort: a broker failure never undoes an order change.
func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.RecordEventPublishFailure()
		s.logger.ErrorContext(ctx, "failed to publish order event",
			"event_type", event.Type,
			"order_number", event.OrderNumber,
			"error", err,
		)
	}
}

func validateOrderRequest(req models.OrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidationFailed)
	}
	if len(req.Items) > maxItemsPerOrder {
		return fmt.Errorf("%w: order cannot contain more than %d items", ErrValidationFailed, maxItemsPerOrder)
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item %d: productId is required", ErrValidationFailed, i+1)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrValidationFailed, i+1)
		}
		if item.Quantity > maxQuantityPerItem {
			return fmt.Errorf("%w: item %d: quantity cannot exceed %d", ErrValidationFailed, i+1, maxQuantityPerItem)
		}
		if strings.TrimSpace(item.SizeID) == "" {
			return fmt.Errorf("%w: item %d: sizeId is required", ErrValidationFailed, i+1)
		}
		if !govalidator.StringLength(item.Customization, "0", fmt.Sprint(maxNoteLength)) {
			return fmt.Errorf("%w: item %d: customization is too long", ErrValidationFailed, i+1)
		}
	}

	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unsupported payment method %q", ErrValidationFailed, req.PaymentMethod)
	}

	addr := normalizeAddress(req.DeliveryAddress)
	if addr.Street == "" || addr.City == "" || addr.Neighborhood == "" {
		return fmt.Errorf("%w: street, neighborhood and city are required", ErrValidationFailed)
	}
	if !validPhone(addr.Phone) {
		return fmt.Errorf("%w: phone must contain 8 to 15 digits", ErrValidationFailed)
	}
	if !govalidator.StringLength(addr.Instructions, "0", fmt.Sprint(maxNoteLength)) {
		return fmt.Errorf("%w: delivery instructions are too long", ErrValidationFailed)
	}
	return nil
}

// addAmount sums two non-negative amounts, rejecting results above maxOrderAmount.
func addAmount(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > maxOrderAmount-b {
		return 0, fmt.Errorf("%w: order amount out of range", ErrValidationFailed)
	}
	return a + b, nil
}

// mulAmount multiplies a non-negative amount by a positive quantity within maxOrderAmount.
func mulAmount(amount, qty int64) (int64, error) {
	if amount < 0 || qty < 1 || amount > maxOrderAmount/qty {
		return 0, fmt.Errorf("%w: order amount out of range", ErrValidationFailed)
	}
	return amount * qty, nil
}

func validPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	digits = strings.NewReplacer(" ", "", "-", "").Replace(digits)
	return govalidator.IsNumeric(digits) && govalidator.StringLength(digits, "8", "15")
}

// normalizeAddress trims surrounding whitespace. Zone lookup stays case-sensitive.
func normalizeAddress(a models.DeliveryAddress) models.DeliveryAddress {
	return models.DeliveryAddress{
		Street:       strings.TrimSpace(a.Street),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		City:         strings.TrimSpace(a.City),
		Phone:        strings.TrimSpace(a.Phone),
		Instructions: strings.TrimSpace(a.Instructions),
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrValidationFailed):
		return "validation"
	case errors.Is(err, ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, ErrSizeUnavailable):
		return "size_unavailable"
	case errors.Is(err, ErrNotServiceable):
		return "not_serviceable"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
