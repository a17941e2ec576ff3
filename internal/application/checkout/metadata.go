package checkout

import (
	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
)

// Metadata keys attached to the payment session at creation time. They are
// opaque strings to the gateway; verification decodes them back into the
// order context.
const (
	metaSKU           = "sku"
	metaProductName   = "product_name"
	metaCost          = "cost"
	metaSupplierURL   = "supplier_url"
	metaImageURL      = "image_url"
	metaCustomerName  = "customer_name"
	metaShipStreet    = "shipping_street"
	metaShipCity      = "shipping_city"
	metaShipState     = "shipping_state"
	metaShipZip       = "shipping_zip"
	metaShipCountry   = "shipping_country"
)

// encodeMetadata flattens the order context into gateway metadata
func encodeMetadata(product catalog.Product, customer order.Customer, shipTo valueobject.Address) map[string]string {
	return map[string]string{
		metaSKU:          product.SKU,
		metaProductName:  product.Name,
		metaCost:         product.Cost.StringFixed(2),
		metaSupplierURL:  product.SupplierURL,
		metaImageURL:     product.ImageURL,
		metaCustomerName: customer.Name,
		metaShipStreet:   shipTo.Street(),
		metaShipCity:     shipTo.City(),
		metaShipState:    shipTo.State(),
		metaShipZip:      shipTo.Zip(),
		metaShipCountry:  shipTo.Country(),
	}
}

// decodedContext is the order context recovered from session metadata
type decodedContext struct {
	SKU          string
	ProductName  string
	Cost         valueobject.Money
	CostMissing  bool
	SupplierURL  string
	ImageURL     string
	CustomerName string
	ShipTo       valueobject.Address
	AddrErr      error
}

// decodeMetadata recovers the order context. A missing or unparseable cost
// does not fail the decode; it yields cost zero with CostMissing set so the
// caller can flag the order for manual review instead of dropping it.
func decodeMetadata(meta map[string]string) decodedContext {
	dc := decodedContext{
		SKU:          meta[metaSKU],
		ProductName:  meta[metaProductName],
		SupplierURL:  meta[metaSupplierURL],
		ImageURL:     meta[metaImageURL],
		CustomerName: meta[metaCustomerName],
	}

	cost, err := valueobject.NewMoneyFromString(meta[metaCost], valueobject.USD)
	if err != nil || cost.IsNegative() {
		dc.Cost = valueobject.ZeroUSD()
		dc.CostMissing = true
	} else {
		dc.Cost = cost
	}

	addr, err := valueobject.NewAddress(
		meta[metaShipStreet],
		meta[metaShipCity],
		meta[metaShipState],
		meta[metaShipZip],
		valueobject.WithCountry(meta[metaShipCountry]),
	)
	if err != nil {
		dc.AddrErr = err
	} else {
		dc.ShipTo = addr
	}

	return dc
}
