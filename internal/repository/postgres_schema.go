package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	base_price  BIGINT NOT NULL,
	category    TEXT NOT NULL,
	available   BOOLEAN NOT NULL DEFAULT TRUE,
	sizes       JSONB NOT NULL DEFAULT '[]',
	toppings    JSONB NOT NULL DEFAULT '[]',
	position    BIGSERIAL
);

CREATE TABLE IF NOT EXISTS delivery_zones (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	cities            JSONB NOT NULL DEFAULT '[]',
	neighborhoods     JSONB NOT NULL DEFAULT '[]',
	delivery_fee      BIGINT NOT NULL,
	estimated_minutes INTEGER NOT NULL,
	available         BOOLEAN NOT NULL DEFAULT TRUE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id                      UUID CONSTRAINT orders_pkey PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	order_number            TEXT NOT NULL CONSTRAINT orders_order_number_key UNIQUE,
	items                   JSONB NOT NULL,
	subtotal                BIGINT NOT NULL,
	delivery_fee            BIGINT NOT NULL,
	total                   BIGINT NOT NULL,
	status                  TEXT NOT NULL,
	payment_method          TEXT NOT NULL,
	payment_status          TEXT NOT NULL,
	delivery_address        JSONB NOT NULL,
	estimated_delivery_time TIMESTAMPTZ,
	actual_delivery_time    TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS orders_user_id_created_at_idx ON orders (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status);
`

// Migrate creates the tables used by the Postgres repositories.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const (
	orderPrimaryKey        = "orders_pkey"
	orderNumberConstraint  = "orders_order_number_key"
	uniqueViolationSQLCode = "23505"
)

// uniqueViolation returns the constraint a unique violation tripped, or "" for any other error
func uniqueViolation(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationSQLCode {
		return pqErr.Constraint
	}
	return ""
}

// orderInsertError maps an insert failure to the repository's sentinel errors. Only an order
// number clash is worth retrying with a new number.
func orderInsertError(err error) error {
	switch uniqueViolation(err) {
	case orderNumberConstraint:
		return ErrDuplicateOrderNumber
	case orderPrimaryKey:
		return fmt.Errorf("insert order: %w", ErrDuplicateOrderID)
	default:
		return fmt.Errorf("insert order: %w", err)
	}
}
