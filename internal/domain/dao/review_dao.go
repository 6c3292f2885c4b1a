package dao

import "context"

// RatingStats aggregates the reviews of one product.
type RatingStats struct {
	Average  float64
	Quantity int64
}

// ReviewDAO aggregates review ratings.
type ReviewDAO interface {
	// RatingStats returns the ratings of productID. Found is false when the
	// product has no reviews.
	RatingStats(ctx context.Context, productID string) (stats RatingStats, found bool, err error)
}
