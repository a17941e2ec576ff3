package catalog

import (
	"context"
	"testing"

	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	cost := valueobject.NewMoneyUSDFromFloat(24.99)
	resale := valueobject.NewMoneyUSDFromFloat(49.99)

	t.Run("valid product", func(t *testing.T) {
		p, err := NewProduct("B07XJ8C8F5", "Echo Dot 3rd Gen", cost, resale, "https://www.amazon.com/dp/B07XJ8C8F5")
		require.NoError(t, err)
		assert.Equal(t, "B07XJ8C8F5", p.SKU)
		assert.True(t, p.ExpectedProfit().Amount().Equal(decimal.NewFromFloat(25.00)))
	})

	t.Run("rejects resale below cost", func(t *testing.T) {
		_, err := NewProduct("SKU1", "Upside Down", resale, cost, "https://example.com/p")
		assert.Error(t, err)
	})

	t.Run("rejects non-positive prices", func(t *testing.T) {
		_, err := NewProduct("SKU1", "Free Stuff", valueobject.ZeroUSD(), resale, "https://example.com/p")
		assert.Error(t, err)

		_, err = NewProduct("SKU1", "No Price", cost, valueobject.ZeroUSD(), "https://example.com/p")
		assert.Error(t, err)
	})

	t.Run("rejects blank identity fields", func(t *testing.T) {
		_, err := NewProduct(" ", "Name", cost, resale, "https://example.com/p")
		assert.Error(t, err)

		_, err = NewProduct("SKU1", "", cost, resale, "https://example.com/p")
		assert.Error(t, err)

		_, err = NewProduct("SKU1", "Name", cost, resale, "")
		assert.Error(t, err)
	})
}

func TestProfitMargin(t *testing.T) {
	p, err := NewProduct("SKU1", "Widget",
		valueobject.NewMoneyUSDFromFloat(25),
		valueobject.NewMoneyUSDFromFloat(50),
		"https://example.com/p")
	require.NoError(t, err)

	assert.True(t, p.ProfitMargin().Equal(decimal.NewFromFloat(0.5)), "margin = %s", p.ProfitMargin())

	// Zero-guard: a zero resale price never divides by zero.
	var empty Product
	assert.True(t, empty.ProfitMargin().IsZero())
}

func TestSliceIterator(t *testing.T) {
	p1, _ := NewProduct("A", "One", valueobject.NewMoneyUSDFromFloat(1), valueobject.NewMoneyUSDFromFloat(2), "https://example.com/a")
	p2, _ := NewProduct("B", "Two", valueobject.NewMoneyUSDFromFloat(3), valueobject.NewMoneyUSDFromFloat(4), "https://example.com/b")

	got, err := Collect(context.Background(), NewSliceIterator([]Product{p1, p2}))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].SKU)
	assert.Equal(t, "B", got[1].SKU)

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := NewSliceIterator([]Product{p1}).Next(ctx)
		assert.Error(t, err)
	})
}
