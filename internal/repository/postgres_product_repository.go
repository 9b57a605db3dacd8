package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// PostgresProductRepository reads the catalog from PostgreSQL.
type PostgresProductRepository struct {
	db *sql.DB
}

// NewPostgresProductRepository constructs a PostgreSQL-backed product repository.
func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `id, name, base_price, category, available, sizes, toppings`

func (r *PostgresProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category = $1)
		  AND (NOT $2 OR available)
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, filter.Category, filter.AvailableOnly)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// Save inserts or replaces a product. Used for seeding; catalog editing lives elsewhere.
func (r *PostgresProductRepository) Save(ctx context.Context, product models.Product) error {
	sizes, err := json.Marshal(product.Sizes)
	if err != nil {
		return fmt.Errorf("marshal sizes: %w", err)
	}
	toppings, err := json.Marshal(product.Toppings)
	if err != nil {
		return fmt.Errorf("marshal toppings: %w", err)
	}

	query := `
		INSERT INTO products (id, name, base_price, category, available, sizes, toppings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			base_price = EXCLUDED.base_price,
			category = EXCLUDED.category,
			available = EXCLUDED.available,
			sizes = EXCLUDED.sizes,
			toppings = EXCLUDED.toppings
	`
	_, err = r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.BasePrice, product.Category, product.Available, sizes, toppings)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p        models.Product
		sizes    []byte
		toppings []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.BasePrice, &p.Category, &p.Available, &sizes, &toppings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, fmt.Errorf("decode sizes for product %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(toppings, &p.Toppings); err != nil {
		return nil, fmt.Errorf("decode toppings for product %s: %w", p.ID, err)
	}
	return &p, nil
}
