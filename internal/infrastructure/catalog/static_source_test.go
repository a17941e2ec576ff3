package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/domain/catalog"
)

func TestStaticSource(t *testing.T) {
	source := NewStaticSource(zap.NewNop())

	iter, err := source.Products(context.Background())
	require.NoError(t, err)
	products, err := catalog.Collect(context.Background(), iter)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	for _, p := range products {
		assert.NotEmpty(t, p.SKU)
		assert.NotEmpty(t, p.Name)
		assert.True(t, p.Cost.IsPositive(), "%s must have a positive cost", p.SKU)
		ge, err := p.ResalePrice.GreaterThanOrEqual(p.Cost)
		require.NoError(t, err)
		assert.True(t, ge, "%s must be priced at or above cost", p.SKU)
		assert.Contains(t, p.SupplierURL, p.SKU)
	}
}

func TestStaticSourceMarkup(t *testing.T) {
	source := NewStaticSource(zap.NewNop())

	iter, err := source.Products(context.Background())
	require.NoError(t, err)
	first, ok, err := iter.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// 7.99 at the 2.5x markup
	assert.Equal(t, int64(799), first.Cost.Cents())
	assert.Equal(t, int64(1998), first.ResalePrice.Cents())
	assert.True(t, first.ExpectedProfit().IsPositive())
}
