package service

import (
	"context"
)

// CatalogService holds the catalog rules that span collections.
type CatalogService interface {
	// Slug derives the URL slug of a name.
	Slug(name string) string

	// CheckCategory fails when the category does not exist.
	CheckCategory(ctx context.Context, field, categoryID string) error

	// CheckProductRefs fails when the category or brand does not exist or
	// when a subcategory is missing or belongs to another category.
	CheckProductRefs(ctx context.Context, categoryID string, subcategoryIDs []string, brandID string) error

	// CheckProduct fails when the product does not exist.
	CheckProduct(ctx context.Context, productID string) error

	// RecalculateRatings refreshes the rating summary of a product from its reviews.
	RecalculateRatings(ctx context.Context, productID string) error

	// NormalizeCoupon trims and upper-cases a coupon name.
	NormalizeCoupon(name string) string
}
