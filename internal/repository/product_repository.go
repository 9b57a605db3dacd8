package repository

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	order    []string
	products map[string]models.Product
}

// NewInMemoryProductRepository creates a new in-memory product repository with seed data
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return NewInMemoryProductRepositoryWith(SeedProducts())
}

// NewInMemoryProductRepositoryWith creates a repository holding exactly the given products.
func NewInMemoryProductRepositoryWith(products []models.Product) *InMemoryProductRepository {
	r := &InMemoryProductRepository{
		products: make(map[string]models.Product, len(products)),
	}
	for _, p := range products {
		r.Put(p)
	}
	return r
}

// Put inserts or replaces a product. It stands in for the catalog-management collaborator.
func (r *InMemoryProductRepository) Put(product models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.products[product.ID] = cloneProduct(product)
}

// GetAll returns all products matching the filter, in insertion order
func (r *InMemoryProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, id := range r.order {
		product := r.products[id]
		if filter.Matches(product) {
			products = append(products, cloneProduct(product))
		}
	}
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	clone := cloneProduct(product)
	return &clone, nil
}

func cloneProduct(p models.Product) models.Product {
	p.Sizes = append([]models.SizeVariation(nil), p.Sizes...)
	p.Toppings = append([]models.Topping(nil), p.Toppings...)
	return p
}

func standardSizes(mediumDelta, largeDelta int64) []models.SizeVariation {
	return []models.SizeVariation{
		{ID: "small", Name: "Small", PriceDelta: 0, Available: true},
		{ID: "medium", Name: "Medium", PriceDelta: mediumDelta, Available: true},
		{ID: "large", Name: "Large", PriceDelta: largeDelta, Available: true},
	}
}

// SeedProducts returns the development catalog. Prices are in XAF.
func SeedProducts() []models.Product {
	waffleToppings := []models.Topping{
		{ID: "syrup", Name: "Maple Syrup", Price: 200, Available: true, Category: "sauce"},
		{ID: "cream", Name: "Whipped Cream", Price: 150, Available: true, Category: "dairy"},
		{ID: "berries", Name: "Fresh Berries", Price: 400, Available: false, Category: "fruit"},
	}
	pizzaToppings := []models.Topping{
		{ID: "cheese", Name: "Extra Cheese", Price: 500, Available: true, Category: "dairy"},
		{ID: "olives", Name: "Olives", Price: 300, Available: true, Category: "vegetable"},
		{ID: "pepper", Name: "Hot Pepper", Price: 100, Available: true, Category: "spice"},
		{ID: "anchovies", Name: "Anchovies", Price: 600, Available: false, Category: "fish"},
	}
	saladToppings := []models.Topping{
		{ID: "chicken", Name: "Grilled Chicken", Price: 800, Available: true, Category: "meat"},
		{ID: "avocado", Name: "Avocado", Price: 350, Available: true, Category: "vegetable"},
	}

	unavailableLarge := standardSizes(1000, 2000)
	unavailableLarge[2].Available = false

	return []models.Product{
		{ID: "1", Name: "Chicken Waffle", BasePrice: 3500, Sizes: standardSizes(500, 1000), Category: "Waffle", Toppings: waffleToppings, Available: true},
		{ID: "2", Name: "Belgian Waffle", BasePrice: 2500, Sizes: standardSizes(500, 1000), Category: "Waffle", Toppings: waffleToppings, Available: true},
		{ID: "3", Name: "Chocolate Waffle", BasePrice: 3000, Sizes: standardSizes(500, 1000), Category: "Waffle", Toppings: waffleToppings, Available: true},
		{ID: "4", Name: "Caesar Salad", BasePrice: 2800, Sizes: standardSizes(700, 1400), Category: "Salad", Toppings: saladToppings, Available: true},
		{ID: "5", Name: "Greek Salad", BasePrice: 2600, Sizes: standardSizes(700, 1400), Category: "Salad", Toppings: saladToppings, Available: true},
		{ID: "6", Name: "Garden Salad", BasePrice: 2000, Sizes: standardSizes(700, 1400), Category: "Salad", Toppings: saladToppings, Available: false},
		{ID: "7", Name: "Margherita Pizza", BasePrice: 4500, Sizes: standardSizes(1000, 2000), Category: "Pizza", Toppings: pizzaToppings, Available: true},
		{ID: "8", Name: "Pepperoni Pizza", BasePrice: 5500, Sizes: standardSizes(1000, 2000), Category: "Pizza", Toppings: pizzaToppings, Available: true},
		{ID: "9", Name: "Veggie Pizza", BasePrice: 5000, Sizes: unavailableLarge, Category: "Pizza", Toppings: pizzaToppings, Available: true},
		{ID: "10", Name: "Classic Burger", BasePrice: 4000, Sizes: standardSizes(800, 1500), Category: "Burger", Toppings: []models.Topping{
			{ID: "bacon", Name: "Bacon", Price: 700, Available: true, Category: "meat"},
			{ID: "egg", Name: "Fried Egg", Price: 300, Available: true, Category: "egg"},
		}, Available: true},
	}
}
