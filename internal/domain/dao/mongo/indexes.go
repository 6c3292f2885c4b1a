package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
)

// indexModels lists the indexes of every collection. resetTTL is how long a
// password reset request lives.
func indexModels(resetTTL time.Duration) map[string][]mongo.IndexModel {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}

	return map[string][]mongo.IndexModel{
		dao.CategoriesCollection:    {unique(bson.D{{Key: "name", Value: 1}})},
		dao.SubcategoriesCollection: {unique(bson.D{{Key: "name", Value: 1}}), {Keys: bson.D{{Key: "category", Value: 1}}}},
		dao.BrandsCollection:        {unique(bson.D{{Key: "name", Value: 1}})},
		dao.ProductsCollection:      {unique(bson.D{{Key: "title", Value: 1}}), {Keys: bson.D{{Key: "category", Value: 1}}}},
		dao.ReviewsCollection:       {unique(bson.D{{Key: "user", Value: 1}, {Key: "product", Value: 1}})},
		dao.CouponsCollection: {
			unique(bson.D{{Key: "name", Value: 1}}),
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		dao.UsersCollection: {unique(bson.D{{Key: "email", Value: 1}})},
		dao.TokensCollection: {
			unique(bson.D{{Key: "requestId", Value: 1}}),
			unique(bson.D{{Key: "uid", Value: 1}}),
			{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(resetTTL.Seconds()))},
		},
	}
}

// EnsureIndexes creates the indexes the DAOs rely on. Creating an existing
// index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, resetTTL time.Duration) error {
	for collection, models := range indexModels(resetTTL) {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
