package content

import (
	"context"
	"fmt"

	appcatalog "github.com/dropflow/backend/internal/application/catalog"
	"github.com/dropflow/backend/internal/domain/catalog"
)

// nicheAngles gives each niche a selling angle for the template copy
var nicheAngles = map[string]string{
	"Electronics":       "Built to perform every day",
	"Sports & Outdoors": "Train harder, recover faster",
	"Beauty":            "Look and feel your best",
	"Fashion":           "Elevate your everyday style",
	"Home & Garden":     "Make your space work for you",
	"Pet Supplies":      "Because they deserve the best",
	"Baby Products":     "Trusted by parents everywhere",
}

// TemplateGenerator produces deterministic copy from the product fields.
// It never fails, which makes it the fallback behind the AI generator and
// the default when no API key is configured.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template-based generator
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate implements the content generator port
func (g *TemplateGenerator) Generate(_ context.Context, product catalog.Product) (appcatalog.Copy, error) {
	angle, ok := nicheAngles[product.Niche]
	if !ok {
		angle = "Quality you can count on"
	}

	description := fmt.Sprintf("%s. %s, shipped fast and backed by our satisfaction guarantee.",
		angle, product.Name)
	if product.ShippingDays > 0 {
		description = fmt.Sprintf("%s. %s, ships in %d days and backed by our satisfaction guarantee.",
			angle, product.Name, product.ShippingDays)
	}

	return appcatalog.Copy{
		Title:       product.Name,
		Description: description,
	}, nil
}

// FallbackGenerator tries the primary generator and degrades to the
// fallback when it fails.
type FallbackGenerator struct {
	primary  appcatalog.ContentGenerator
	fallback appcatalog.ContentGenerator
}

// NewFallbackGenerator chains a primary generator with a fallback
func NewFallbackGenerator(primary, fallback appcatalog.ContentGenerator) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, fallback: fallback}
}

// Generate implements the content generator port
func (g *FallbackGenerator) Generate(ctx context.Context, product catalog.Product) (appcatalog.Copy, error) {
	copy, err := g.primary.Generate(ctx, product)
	if err == nil {
		return copy, nil
	}
	return g.fallback.Generate(ctx, product)
}

var (
	_ appcatalog.ContentGenerator = (*TemplateGenerator)(nil)
	_ appcatalog.ContentGenerator = (*FallbackGenerator)(nil)
)
