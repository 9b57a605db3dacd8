package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// PostgresOrderRepository persists orders in PostgreSQL. The order_number column
// carries a unique constraint; a clash surfaces as ErrDuplicateOrderNumber.
type PostgresOrderRepository struct {
	db *sql.DB
}

// NewPostgresOrderRepository constructs a PostgreSQL-backed order repository.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

const orderColumns = `id, user_id, order_number, items, subtotal, delivery_fee, total, status,
	payment_method, payment_status, delivery_address, estimated_delivery_time,
	actual_delivery_time, created_at, updated_at`

func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("marshal delivery address: %w", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.OrderNumber,
		items,
		order.Subtotal,
		order.DeliveryFee,
		order.Total,
		string(order.Status),
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		address,
		order.EstimatedDeliveryTime,
		order.ActualDeliveryTime,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return orderInsertError(err)
	}
	return nil
}

// FindByID returns ErrOrderNotFound for ids that are not UUIDs instead of letting the cast fail.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// Update writes the mutable status fields. There is no version check: last write wins.
func (r *PostgresOrderRepository) Update(ctx context.Context, order *models.Order) error {
	if _, err := uuid.Parse(order.ID); err != nil {
		return ErrOrderNotFound
	}
	query := `
		UPDATE orders
		SET status = $2,
		    payment_status = $3,
		    actual_delivery_time = $4,
		    updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		order.ID,
		string(order.Status),
		string(order.PaymentStatus),
		order.ActualDeliveryTime,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, order_number DESC
	`
	rows, err := r.db.QueryContext(ctx, query, filter.UserID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *PostgresOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o                 models.Order
		items, address    []byte
		status, method    string
		paymentStatus     string
		estimated, actual sql.NullTime
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderNumber,
		&items,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.Total,
		&status,
		&method,
		&paymentStatus,
		&address,
		&estimated,
		&actual,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Status = models.OrderStatus(status)
	o.PaymentMethod = models.PaymentMethod(method)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)
	if estimated.Valid {
		t := estimated.Time
		o.EstimatedDeliveryTime = &t
	}
	if actual.Valid {
		t := actual.Time
		o.ActualDeliveryTime = &t
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items for order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(address, &o.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("decode address for order %s: %w", o.ID, err)
	}
	return &o, nil
}
