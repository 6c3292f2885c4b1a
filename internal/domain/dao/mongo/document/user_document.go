// Package document defines MongoDB document structs for persistence.
// These structs are separate from domain entities so BSON concerns stay
// out of the domain layer.
package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressDocument is an address embedded in a user document.
type AddressDocument struct {
	ID      primitive.ObjectID `bson:"_id"`
	Alias   string             `bson:"alias"`
	Details string             `bson:"details"`
	Phone   string             `bson:"phone,omitempty"`
	City    string             `bson:"city"`
	State   string             `bson:"state,omitempty"`
	Country string             `bson:"country,omitempty"`
	Pincode string             `bson:"pincode,omitempty"`
}

// UserDocument represents a user in MongoDB.
type UserDocument struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty"`
	Name              string               `bson:"name"`
	Email             string               `bson:"email"`
	Password          string               `bson:"password"`
	Phone             string               `bson:"phone,omitempty"`
	Avatar            string               `bson:"avatar,omitempty"`
	Role              string               `bson:"role"`
	PasswordChangedAt *time.Time           `bson:"passwordChangedAt,omitempty"`
	Wishlist          []primitive.ObjectID `bson:"wishlist"`
	Addresses         []AddressDocument    `bson:"addresses"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

// CollectionName returns the MongoDB collection name for users.
func (UserDocument) CollectionName() string {
	return "users"
}
