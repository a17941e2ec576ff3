package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct {
	products []catalog.Product
}

func (s staticSource) Products(context.Context) (catalog.Iterator, error) {
	return catalog.NewSliceIterator(s.products), nil
}

type stubGenerator struct {
	copy Copy
	err  error
}

func (g stubGenerator) Generate(context.Context, catalog.Product) (Copy, error) {
	return g.copy, g.err
}

func testProducts(t *testing.T, n int) []catalog.Product {
	t.Helper()
	products := make([]catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		p, err := catalog.NewProduct(
			"B0TEST00"+string(rune('A'+i)),
			"Neck Massager",
			valueobject.NewMoneyUSDFromFloat(12.50),
			valueobject.NewMoneyUSDFromFloat(29.99),
			"https://www.amazon.com/dp/B0TEST00"+string(rune('A'+i)))
		require.NoError(t, err)
		products = append(products, p)
	}
	return products
}

func TestListProducts(t *testing.T) {
	t.Run("dresses products with generated copy", func(t *testing.T) {
		svc := NewService(
			staticSource{products: testProducts(t, 2)},
			stubGenerator{copy: Copy{Title: "Melt Away Neck Tension", Description: "Targeted deep-kneading relief."}},
			zap.NewNop())

		listings, err := svc.ListProducts(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, listings, 2)
		assert.Equal(t, "Melt Away Neck Tension", listings[0].Title)
		assert.Equal(t, "Targeted deep-kneading relief.", listings[0].Description)
		assert.InDelta(t, 29.99, listings[0].Price, 0.001)
	})

	t.Run("generator failure degrades to the plain product name", func(t *testing.T) {
		svc := NewService(
			staticSource{products: testProducts(t, 1)},
			stubGenerator{err: errors.New("upstream 503")},
			zap.NewNop())

		listings, err := svc.ListProducts(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Neck Massager", listings[0].Title)
		assert.Empty(t, listings[0].Description)
	})

	t.Run("respects the listing limit", func(t *testing.T) {
		svc := NewService(staticSource{products: testProducts(t, 5)}, nil, zap.NewNop())

		listings, err := svc.ListProducts(context.Background(), 3)
		require.NoError(t, err)
		assert.Len(t, listings, 3)
	})

	t.Run("never exposes the supplier cost", func(t *testing.T) {
		svc := NewService(staticSource{products: testProducts(t, 1)}, nil, zap.NewNop())

		listings, err := svc.ListProducts(context.Background(), 1)
		require.NoError(t, err)
		assert.InDelta(t, 29.99, listings[0].Price, 0.001)
	})
}
