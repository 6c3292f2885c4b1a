package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao/mongo/document"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao/mongo/mapper"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// resetTokenDAO implements dao.ResetTokenDAO using MongoDB.
type resetTokenDAO struct {
	collection *mongo.Collection
	mapper     *mapper.ResetTokenMapper
	timeout    time.Duration
}

// NewResetTokenDAO creates a new MongoDB-based ResetTokenDAO.
func NewResetTokenDAO(db *mongo.Database, timeout time.Duration) dao.ResetTokenDAO {
	return &resetTokenDAO{
		collection: db.Collection(document.ResetTokenDocument{}.CollectionName()),
		mapper:     mapper.NewResetTokenMapper(),
		timeout:    timeout,
	}
}

// Upsert replaces the pending request of the user in one round trip, so a
// superseded request never coexists with the new one.
func (d *resetTokenDAO) Upsert(ctx context.Context, token *entity.ResetToken) error {
	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	doc := d.mapper.ToDocument(token)
	doc.ID = primitive.NilObjectID

	res, err := d.collection.ReplaceOne(ctx, bson.M{"uid": doc.UserID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return translateError(err)
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		token.ID = oid.Hex()
	}
	return nil
}

// FindByRequest retrieves the request issued to client.
func (d *resetTokenDAO) FindByRequest(ctx context.Context, requestID string, client entity.ClientFingerprint) (*entity.ResetToken, error) {
	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	filter := bson.M{
		"requestId":    requestID,
		"client.ip":    client.IP,
		"client.agent": client.Agent,
	}

	var doc document.ResetTokenDocument
	err := d.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.mapper.ToEntity(&doc), nil
}

// Delete removes the request with the given id.
func (d *resetTokenDAO) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	_, err = d.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// DeleteCreatedBefore removes requests created before cutoff.
func (d *resetTokenDAO) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	res, err := d.collection.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
