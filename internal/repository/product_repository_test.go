package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

func TestInMemoryProductRepository_GetAll(t *testing.T) {
	repo := NewInMemoryProductRepository()

	products, err := repo.GetAll(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 10)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "10", products[9].ID)

	salads, err := repo.GetAll(context.Background(), models.ProductFilter{Category: "Salad", AvailableOnly: true})
	require.NoError(t, err)
	assert.Len(t, salads, 2)
}

func TestInMemoryProductRepository_GetByID(t *testing.T) {
	repo := NewInMemoryProductRepository()

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "existing product", id: "1", want: "Chicken Waffle"},
		{name: "unavailable product is still returned", id: "6", want: "Garden Salad"},
		{name: "missing product", id: "999", wantErr: ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := repo.GetByID(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, product.Name)
		})
	}
}

func TestInMemoryProductRepository_PutReplaces(t *testing.T) {
	repo := NewInMemoryProductRepositoryWith(nil)
	repo.Put(models.Product{ID: "a", Name: "First"})
	repo.Put(models.Product{ID: "b", Name: "Second"})
	repo.Put(models.Product{ID: "a", Name: "First v2"})

	products, err := repo.GetAll(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "First v2", products[0].Name)
}
