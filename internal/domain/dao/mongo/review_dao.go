package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
)

// reviewDAO implements dao.ReviewDAO using MongoDB.
type reviewDAO struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewReviewDAO creates a new MongoDB-based ReviewDAO.
func NewReviewDAO(db *mongo.Database, timeout time.Duration) dao.ReviewDAO {
	return &reviewDAO{
		collection: db.Collection(dao.ReviewsCollection),
		timeout:    timeout,
	}
}

type ratingGroup struct {
	Average  float64 `bson:"average"`
	Quantity int64   `bson:"quantity"`
}

// ratingPipeline groups the reviews of product into average and count.
func ratingPipeline(product primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": product}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product"},
			{Key: "quantity", Value: bson.M{"$sum": 1}},
			{Key: "average", Value: bson.M{"$avg": "$ratings"}},
		}}},
	}
}

// RatingStats aggregates the ratings of productID.
func (d *reviewDAO) RatingStats(ctx context.Context, productID string) (dao.RatingStats, bool, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return dao.RatingStats{}, false, nil
	}

	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	cursor, err := d.collection.Aggregate(ctx, ratingPipeline(oid))
	if err != nil {
		return dao.RatingStats{}, false, err
	}
	defer cursor.Close(ctx)

	var groups []ratingGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return dao.RatingStats{}, false, err
	}
	if len(groups) == 0 {
		return dao.RatingStats{}, false, nil
	}
	return dao.RatingStats{Average: groups[0].Average, Quantity: groups[0].Quantity}, true, nil
}
