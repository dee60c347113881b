package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestListProducts_All(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.ListProducts(context.Background(), domain.Search{})
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.Equal(t, "Leather Backpack", products[0].Name)
	assert.Equal(t, int64(12900), products[0].Price)
	assert.True(t, products[0].IsBest)
	assert.False(t, products[0].CreatedAt.IsZero())
}

func TestListProducts_Search(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		search domain.Search
		want   []string
	}{
		{"query", domain.Search{Query: "scarf"}, []string{"Wool Scarf", "Silk Scarf"}},
		{"query is case insensitive", domain.Search{Query: "BEAN"}, []string{"Beanie"}},
		{"category", domain.Search{CategoryIDs: []int64{1}}, []string{"Leather Backpack", "Canvas Tote"}},
		{"categories", domain.Search{CategoryIDs: []int64{1, 3}}, []string{"Leather Backpack", "Canvas Tote", "Beanie"}},
		{"query and category", domain.Search{Query: "silk", CategoryIDs: []int64{2}}, []string{"Silk Scarf"}},
		{"no match", domain.Search{Query: "shoe"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.ListProducts(ctx, tt.search)
			require.NoError(t, err)

			names := make([]string, 0, len(products))
			for _, p := range products {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestGetProduct(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "wool-scarf", p.Slug)
	assert.Equal(t, int64(2), p.CategoryID)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_Concurrent(t *testing.T) {
	repo := setupTestDB(t)

	var wg sync.WaitGroup
	results := make([]*domain.Product, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := repo.GetProduct(context.Background(), 1)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, int64(1), p.ID)
	}
	results[0].Name = "changed"
	assert.Equal(t, "Leather Backpack", results[1].Name)
}

func TestListCategories(t *testing.T) {
	repo := setupTestDB(t)

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Bags"}, {ID: 3, Name: "Hats"}, {ID: 2, Name: "Scarves"}}, categories)
}

func TestCarriers(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	carriers, err := repo.ListCarriers(ctx)
	require.NoError(t, err)
	require.Len(t, carriers, 2)
	assert.Equal(t, "Colissimo", carriers[0].Name)

	c, err := repo.GetCarrier(ctx, carriers[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1490), c.Price)

	_, err = repo.GetCarrier(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrCarrierNotFound)
}

func TestListProducts_BestOnly(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.ListProducts(context.Background(), domain.Search{BestOnly: true})
	require.NoError(t, err)

	names := make([]string, 0, len(products))
	for _, p := range products {
		assert.True(t, p.IsBest)
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Leather Backpack", "Wool Scarf"}, names)
}

func TestListHeaders(t *testing.T) {
	repo := setupTestDB(t)

	headers, err := repo.ListHeaders(context.Background())
	require.NoError(t, err)
	require.Len(t, headers, 2)
	assert.Equal(t, "Autumn collection", headers[0].Title)
	assert.Equal(t, "Shop scarves", headers[0].BtnTitle)
	assert.Equal(t, "/products?category=2", headers[0].BtnURL)
	assert.Equal(t, "autumn.jpg", headers[0].Image)
}
