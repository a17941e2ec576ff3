package catalog

import (
	"context"

	"github.com/dropflow/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

const defaultListingLimit = 50

// Copy is buyer-facing marketing text for a listing
type Copy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ContentGenerator produces marketing copy for a product. Implementations
// must be safe for concurrent use.
type ContentGenerator interface {
	Generate(ctx context.Context, product catalog.Product) (Copy, error)
}

// Listing is a sellable product with its marketing copy and buyer price.
// The supplier cost never appears here.
type Listing struct {
	SKU         string  `json:"sku"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Niche       string  `json:"niche,omitempty"`
}

// Service assembles the storefront: products from the catalog source,
// dressed with generated copy.
type Service struct {
	source    catalog.Source
	generator ContentGenerator
	logger    *zap.Logger
}

// NewService creates a new catalog service
func NewService(source catalog.Source, generator ContentGenerator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, generator: generator, logger: logger}
}

// ListProducts returns up to limit sellable listings. A failing content
// generator degrades a listing to its plain product name; it never hides
// the product.
func (s *Service) ListProducts(ctx context.Context, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = defaultListingLimit
	}

	iter, err := s.source.Products(ctx)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	listings := make([]Listing, 0, limit)
	for len(listings) < limit {
		product, ok, err := iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		listings = append(listings, s.listingFor(ctx, product))
	}
	return listings, nil
}

func (s *Service) listingFor(ctx context.Context, product catalog.Product) Listing {
	listing := Listing{
		SKU:      product.SKU,
		Title:    product.Name,
		Price:    product.ResalePrice.Float64(),
		ImageURL: product.ImageURL,
		Niche:    product.Niche,
	}

	if s.generator == nil {
		return listing
	}
	copy, err := s.generator.Generate(ctx, product)
	if err != nil {
		s.logger.Warn("Content generation failed, serving plain product name",
			zap.String("sku", product.SKU),
			zap.Error(err))
		return listing
	}
	if copy.Title != "" {
		listing.Title = copy.Title
	}
	listing.Description = copy.Description
	return listing
}
