package catalog

import (
	"strings"

	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Product is an immutable snapshot of a supplier listing: what the business
// pays for it, what the buyer is charged, and where to execute the purchase.
// Once captured on an order the prices are never looked up live again.
type Product struct {
	SKU             string              `json:"sku"`
	Name            string              `json:"name"`
	Niche           string              `json:"niche,omitempty"`
	Cost            valueobject.Money   `json:"cost"`
	ResalePrice     valueobject.Money   `json:"resale_price"`
	SupplierURL     string              `json:"supplier_url"`
	ImageURL        string              `json:"image_url,omitempty"`
	ShippingDays    int                 `json:"shipping_days,omitempty"`
	SupplierRating  decimal.Decimal     `json:"supplier_rating,omitempty"`
}

// NewProduct creates a product snapshot, rejecting non-positive margins.
func NewProduct(sku, name string, cost, resalePrice valueobject.Money, supplierURL string) (Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)

	if sku == "" {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", "Product SKU cannot be empty")
	}
	if name == "" {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", "Product name cannot be empty")
	}
	if !cost.IsPositive() {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", "Product cost must be positive")
	}
	if !resalePrice.IsPositive() {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", "Resale price must be positive")
	}
	ok, err := resalePrice.GreaterThanOrEqual(cost)
	if err != nil {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if !ok {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", "Resale price cannot be below cost")
	}
	if strings.TrimSpace(supplierURL) == "" {
		return Product{}, shared.NewDomainError("VALIDATION_FAILED", "Supplier URL cannot be empty")
	}

	return Product{
		SKU:         sku,
		Name:        name,
		Cost:        cost,
		ResalePrice: resalePrice,
		SupplierURL: supplierURL,
	}, nil
}

// WithNiche returns a copy with the niche/category set
func (p Product) WithNiche(niche string) Product {
	p.Niche = niche
	return p
}

// WithImage returns a copy with the image URL set
func (p Product) WithImage(url string) Product {
	p.ImageURL = url
	return p
}

// WithShipping returns a copy with the shipping estimate and supplier rating set
func (p Product) WithShipping(days int, rating decimal.Decimal) Product {
	p.ShippingDays = days
	p.SupplierRating = rating
	return p
}

// ProfitMargin returns (resale - cost) / resale. Zero when resale is zero.
func (p Product) ProfitMargin() decimal.Decimal {
	if p.ResalePrice.IsZero() {
		return decimal.Zero
	}
	spread := p.ResalePrice.MustSubtract(p.Cost)
	return spread.Amount().Div(p.ResalePrice.Amount())
}

// ExpectedProfit returns resale price minus cost
func (p Product) ExpectedProfit() valueobject.Money {
	return p.ResalePrice.MustSubtract(p.Cost)
}
