package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientDocument records where a reset request came from.
type ClientDocument struct {
	IP    string `bson:"ip"`
	Agent string `bson:"agent"`
}

// ResetTokenDocument represents a pending password reset in MongoDB.
// A TTL index on createdAt removes it once it expires.
type ResetTokenDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"uid"`
	Email     string             `bson:"email"`
	RequestID string             `bson:"requestId"`
	Token     string             `bson:"token"`
	OTP       string             `bson:"otp"`
	Client    ClientDocument     `bson:"client"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// CollectionName returns the MongoDB collection name for reset tokens.
func (ResetTokenDocument) CollectionName() string {
	return "tokens"
}
