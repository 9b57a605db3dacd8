package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
)

// ProductService is the read-only catalog snapshot accessor used by handlers and the order assembler
type ProductService struct {
	repo  repository.ProductRepository
	group singleflight.Group
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns the products matching filter
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.repo.GetAll(ctx, filter)
}

// GetProduct returns a product by ID. Concurrent lookups of the same product share one repository read;
// every caller gets its own copy. The shared read ignores the cancellation of whichever caller started
// it; each caller still returns early when its own ctx ends.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(id, func() (interface{}, error) {
		return s.repo.GetByID(shared, id)
	})

	var v interface{}
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("get product %s: %w", id, ctx.Err())
	}
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	product := *v.(*models.Product)
	product.Sizes = append([]models.SizeVariation(nil), product.Sizes...)
	product.Toppings = append([]models.Topping(nil), product.Toppings...)
	return &product, nil
}
