// Package dao defines data access object interfaces for database abstraction.
// The DAO layer separates service logic from the MongoDB implementation.
package dao

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jrjohn/arcana-commerce-go/internal/query"
)

var (
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnavailable is returned when the store timed out or could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// FindOptions shapes the documents returned by Find and FindOne.
type FindOptions struct {
	Projection map[string]bool
	Sort       bson.D
	Skip       int64
	Limit      int64
	Populate   []query.Population
}

// DocumentDAO is a handle on one collection. Documents travel as bson.M so
// the generic CRUD handlers can serve every catalog resource.
type DocumentDAO interface {
	// Collection returns the collection name.
	Collection() string

	// Count returns the number of documents matching filter.
	Count(ctx context.Context, filter bson.M) (int64, error)

	// Find returns the documents matching filter shaped by opts.
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)

	// FindOne returns the first document matching filter.
	// Returns nil, nil if no document matches.
	FindOne(ctx context.Context, filter bson.M, opts FindOptions) (bson.M, error)

	// Insert stores doc, stamping _id, createdAt and updatedAt, and returns
	// the stored document without hidden fields.
	Insert(ctx context.Context, doc any) (bson.M, error)

	// FindOneAndUpdate applies update atomically and returns the document
	// after the update. Returns nil, nil if no document matches.
	FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (bson.M, error)

	// FindOneAndDelete removes the first matching document and returns it.
	// Returns nil, nil if no document matches.
	FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error)

	// DeleteMany removes every matching document and returns how many went.
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
}

// Collections groups the document collections served over HTTP.
type Collections struct {
	Categories    DocumentDAO
	Subcategories DocumentDAO
	Brands        DocumentDAO
	Products      DocumentDAO
	Reviews       DocumentDAO
	Coupons       DocumentDAO
	Users         DocumentDAO
}
