// Package mongo provides MongoDB-based DAO implementations.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
)

// collectionDAO implements dao.DocumentDAO for one collection.
type collectionDAO struct {
	collection *mongo.Collection
	schema     dao.Schema
	timeout    time.Duration
	now        func() time.Time
}

// NewDocumentDAO creates a DocumentDAO for the collection described by schema.
// Every operation is bounded by timeout when it is positive.
func NewDocumentDAO(db *mongo.Database, schema dao.Schema, timeout time.Duration) dao.DocumentDAO {
	return &collectionDAO{
		collection: db.Collection(schema.Name),
		schema:     schema,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (d *collectionDAO) Collection() string {
	return d.schema.Name
}

// withTimeout bounds ctx by the configured operation timeout.
func (d *collectionDAO) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return operationContext(ctx, d.timeout)
}

func (d *collectionDAO) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	n, err := d.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (d *collectionDAO) Find(ctx context.Context, filter bson.M, opts dao.FindOptions) ([]bson.M, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cursor, err := d.collection.Aggregate(ctx, buildPipeline(d.schema, filter, opts))
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	docs := make([]bson.M, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err)
	}
	return docs, nil
}

func (d *collectionDAO) FindOne(ctx context.Context, filter bson.M, opts dao.FindOptions) (bson.M, error) {
	opts.Skip = 0
	opts.Limit = 1
	docs, err := d.Find(ctx, filter, opts)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (d *collectionDAO) Insert(ctx context.Context, doc any) (bson.M, error) {
	m, err := toM(doc)
	if err != nil {
		return nil, err
	}
	normalizeRefs(d.schema, m)

	now := d.now().UTC()
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}
	m["createdAt"] = now
	m["updatedAt"] = now

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if _, err := d.collection.InsertOne(ctx, m); err != nil {
		return nil, translateError(err)
	}
	return d.strip(m), nil
}

func (d *collectionDAO) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (bson.M, error) {
	set := bson.M{}
	if raw, ok := update["$set"]; ok {
		m, err := toM(raw)
		if err != nil {
			return nil, err
		}
		set = m
	}
	normalizeRefs(d.schema, set)
	set["updatedAt"] = d.now().UTC()

	stmt := bson.M{}
	for op, v := range update {
		stmt[op] = v
	}
	stmt["$set"] = set

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out bson.M
	err := d.collection.FindOneAndUpdate(ctx, filter, stmt, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return d.strip(out), nil
}

func (d *collectionDAO) FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var out bson.M
	err := d.collection.FindOneAndDelete(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return d.strip(out), nil
}

func (d *collectionDAO) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translateError(err)
	}
	return res.DeletedCount, nil
}

// strip removes write-only fields before a document leaves the DAO.
func (d *collectionDAO) strip(m bson.M) bson.M {
	for _, h := range d.schema.Hidden {
		delete(m, h)
	}
	return m
}

// operationContext applies timeout to ctx when it is positive.
func operationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// toM converts a bson-tagged struct or map into a bson.M.
func toM(v any) (bson.M, error) {
	switch t := v.(type) {
	case nil:
		return bson.M{}, nil
	case bson.M:
		out := make(bson.M, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	}

	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// normalizeRefs stores hex references as ObjectIDs so $lookup can join them.
func normalizeRefs(schema dao.Schema, m bson.M) {
	for path := range schema.Relations {
		v, ok := m[path]
		if !ok {
			continue
		}
		m[path] = refValue(v)
	}
}

func refValue(v any) any {
	switch t := v.(type) {
	case string:
		if oid, err := primitive.ObjectIDFromHex(t); err == nil {
			return oid
		}
	case []string:
		out := make(primitive.A, len(t))
		for i, s := range t {
			out[i] = refValue(s)
		}
		return out
	case primitive.A:
		out := make(primitive.A, len(t))
		for i, s := range t {
			out[i] = refValue(s)
		}
		return out
	case []any:
		return refValue(primitive.A(t))
	}
	return v
}

// translateError maps unique index violations to dao.ErrDuplicateKey and
// timeouts or lost connections to dao.ErrUnavailable.
func translateError(err error) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", dao.ErrDuplicateKey, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", dao.ErrUnavailable, err)
	}
	return err
}
