package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
)

// defaultMarkup is applied to the supplier cost to get the resale price
var defaultMarkup = decimal.NewFromFloat(2.5)

// verifiedProduct is a hand-checked supplier listing. The Amazon Basics line
// keeps the same ASINs for years, which is what makes a static list viable.
type verifiedProduct struct {
	ASIN   string
	Name   string
	Niche  string
	Cost   float64
	Rating float64
}

var verifiedProducts = []verifiedProduct{
	{"B00NH13G5A", "Amazon Basics High-Speed HDMI Cable", "Electronics", 7.99, 4.6},
	{"B01DFKC2SO", "Amazon Basics USB-A to Lightning Cable", "Electronics", 9.99, 4.5},
	{"B072BYGKZZ", "Amazon Basics AA Alkaline Batteries 36-Pack", "Electronics", 14.49, 4.7},
	{"B00DQFGH80", "Amazon Basics AAA Alkaline Batteries 36-Pack", "Electronics", 13.99, 4.7},
	{"B014I8SSD0", "Amazon Basics Micro USB Cable 6 Feet", "Electronics", 6.99, 4.6},
	{"B0925FXF87", "Amazon Basics USB-C to USB-A 2.0 Cable", "Electronics", 8.99, 4.5},
	{"B074WMR6YQ", "Amazon Basics AAA Performance Alkaline Batteries 48-Pack", "Electronics", 15.99, 4.7},
	{"B07MKKDSWS", "Amazon Basics DisplayPort to HDMI Cable", "Electronics", 10.99, 4.6},
	{"B01J4N64WE", "Amazon Basics Ethernet Cable CAT6", "Electronics", 7.49, 4.6},
	{"B01LONQ7R6", "Amazon Basics Extension Cord 6 Foot", "Electronics", 11.99, 4.6},
	{"B003M0NURK", "Amazon Basics VGA to VGA Cable 6 Feet", "Electronics", 6.99, 4.5},
	{"B00L3K8HK8", "Amazon Basics 6-Outlet Surge Protector", "Electronics", 14.99, 4.6},
	{"B014I8SP2W", "Amazon Basics Lightning to USB-A Cable 3 Feet", "Electronics", 7.99, 4.5},
	{"B01F9GY3HM", "Amazon Basics USB 3.0 Cable A-Male to A-Female", "Electronics", 8.49, 4.6},
	{"B000FPLQ5A", "Amazon Basics 9V Alkaline Batteries 8-Pack", "Electronics", 12.99, 4.6},
}

// StaticSource serves the verified product list. It needs no network and is
// the default catalog source.
type StaticSource struct {
	products []catalog.Product
}

// NewStaticSource builds the source, pricing each verified product at the
// default markup over its supplier cost.
func NewStaticSource(logger *zap.Logger) *StaticSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	products := make([]catalog.Product, 0, len(verifiedProducts))
	for _, vp := range verifiedProducts {
		cost := valueobject.NewMoneyUSDFromFloat(vp.Cost)
		resale := cost.Multiply(defaultMarkup).Round(2)

		p, err := catalog.NewProduct(vp.ASIN, vp.Name, cost, resale, "https://www.amazon.com/dp/"+vp.ASIN)
		if err != nil {
			logger.Warn("Skipping invalid verified product",
				zap.String("asin", vp.ASIN),
				zap.Error(err))
			continue
		}
		p = p.WithNiche(vp.Niche).WithShipping(2, decimal.NewFromFloat(vp.Rating))
		products = append(products, p)
	}

	return &StaticSource{products: products}
}

// Products implements catalog.Source
func (s *StaticSource) Products(context.Context) (catalog.Iterator, error) {
	return catalog.NewSliceIterator(s.products), nil
}

var _ catalog.Source = (*StaticSource)(nil)
