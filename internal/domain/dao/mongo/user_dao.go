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

// userDAO implements dao.UserDAO using MongoDB.
type userDAO struct {
	collection *mongo.Collection
	mapper     *mapper.UserMapper
	timeout    time.Duration
}

// NewUserDAO creates a new MongoDB-based UserDAO.
func NewUserDAO(db *mongo.Database, timeout time.Duration) dao.UserDAO {
	return &userDAO{
		collection: db.Collection(document.UserDocument{}.CollectionName()),
		mapper:     mapper.NewUserMapper(),
		timeout:    timeout,
	}
}

// Create inserts a new user into MongoDB.
func (d *userDAO) Create(ctx context.Context, user *entity.User) error {
	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := d.mapper.ToDocument(user)
	doc.ID = primitive.NewObjectID()
	if _, err := d.collection.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

// FindByID retrieves a user by hex id.
func (d *userDAO) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return d.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail retrieves a user by their email.
func (d *userDAO) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return d.findOne(ctx, bson.M{"email": email})
}

// ExistsByEmail checks if a user with the given email exists.
func (d *userDAO) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	count, err := d.collection.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	return count > 0, err
}

// UpdatePassword replaces the password hash and stamps passwordChangedAt.
func (d *userDAO) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) (*entity.User, error) {
	return d.update(ctx, id, bson.M{"$set": bson.M{
		"password":          hash,
		"passwordChangedAt": changedAt,
	}})
}

// AddToWishlist adds productID to the wishlist with $addToSet.
func (d *userDAO) AddToWishlist(ctx context.Context, id, productID string) (*entity.User, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, nil
	}
	return d.update(ctx, id, bson.M{"$addToSet": bson.M{"wishlist": pid}})
}

// RemoveFromWishlist pulls productID from the wishlist.
func (d *userDAO) RemoveFromWishlist(ctx context.Context, id, productID string) (*entity.User, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, nil
	}
	return d.update(ctx, id, bson.M{"$pull": bson.M{"wishlist": pid}})
}

// AddAddress appends address with a fresh id.
func (d *userDAO) AddAddress(ctx context.Context, id string, address entity.Address) (*entity.User, error) {
	address.ID = ""
	doc := d.mapper.AddressToDocument(address)
	return d.update(ctx, id, bson.M{"$push": bson.M{"addresses": doc}})
}

// RemoveAddress pulls the address with addressID.
func (d *userDAO) RemoveAddress(ctx context.Context, id, addressID string) (*entity.User, error) {
	aid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return d.FindByID(ctx, id)
	}
	return d.update(ctx, id, bson.M{"$pull": bson.M{"addresses": bson.M{"_id": aid}}})
}

func (d *userDAO) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	var doc document.UserDocument
	err := d.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.mapper.ToEntity(&doc), nil
}

// update applies stmt to the user with id and returns the after-image.
func (d *userDAO) update(ctx context.Context, id string, stmt bson.M) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := operationContext(ctx, d.timeout)
	defer cancel()

	set, _ := stmt["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now().UTC()
	stmt["$set"] = set

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc document.UserDocument
	err = d.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, stmt, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return d.mapper.ToEntity(&doc), nil
}
