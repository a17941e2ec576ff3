package checkout

import (
	"testing"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	product, err := catalog.NewProduct("B0TEST123", "Posture Corrector",
		valueobject.NewMoneyUSDFromFloat(24.99),
		valueobject.NewMoneyUSDFromFloat(49.99),
		"https://www.amazon.com/dp/B0TEST123")
	require.NoError(t, err)
	product = product.WithImage("https://img.example.com/b0test123.jpg")

	shipTo, err := valueobject.NewAddress("1 Main St", "Austin", "TX", "78701")
	require.NoError(t, err)

	meta := encodeMetadata(product, order.Customer{Name: "Jane Buyer", Email: "buyer@example.com"}, shipTo)
	dc := decodeMetadata(meta)

	require.NoError(t, dc.AddrErr)
	assert.False(t, dc.CostMissing)
	assert.Equal(t, "B0TEST123", dc.SKU)
	assert.Equal(t, "Posture Corrector", dc.ProductName)
	assert.Equal(t, int64(2499), dc.Cost.Cents())
	assert.Equal(t, "https://www.amazon.com/dp/B0TEST123", dc.SupplierURL)
	assert.Equal(t, "https://img.example.com/b0test123.jpg", dc.ImageURL)
	assert.Equal(t, "Jane Buyer", dc.CustomerName)
	assert.Equal(t, "1 Main St", dc.ShipTo.Street())
	assert.Equal(t, "US", dc.ShipTo.Country())
}

func TestDecodeMetadataDegradedInputs(t *testing.T) {
	t.Run("absent cost flags manual review instead of failing", func(t *testing.T) {
		meta := sessionMetadata()
		delete(meta, "cost")

		dc := decodeMetadata(meta)
		require.NoError(t, dc.AddrErr)
		assert.True(t, dc.CostMissing)
		assert.True(t, dc.Cost.IsZero())
	})

	t.Run("garbage cost flags manual review instead of failing", func(t *testing.T) {
		meta := sessionMetadata()
		meta["cost"] = "twenty bucks"

		dc := decodeMetadata(meta)
		assert.True(t, dc.CostMissing)
		assert.True(t, dc.Cost.IsZero())
	})

	t.Run("missing shipping fields surface an address error", func(t *testing.T) {
		meta := sessionMetadata()
		delete(meta, "shipping_zip")

		dc := decodeMetadata(meta)
		assert.Error(t, dc.AddrErr)
	})

	t.Run("missing country falls back to US", func(t *testing.T) {
		meta := sessionMetadata()
		delete(meta, "shipping_country")

		dc := decodeMetadata(meta)
		require.NoError(t, dc.AddrErr)
		assert.Equal(t, "US", dc.ShipTo.Country())
	})
}
