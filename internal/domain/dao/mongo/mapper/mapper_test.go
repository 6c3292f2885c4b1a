package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao/mongo/document"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

const testEmail = "test@example.com"

func TestUserMapper_ToDocument(t *testing.T) {
	mapper := NewUserMapper()

	t.Run("nil user", func(t *testing.T) {
		assert.Nil(t, mapper.ToDocument(nil))
	})

	t.Run("valid user", func(t *testing.T) {
		id := primitive.NewObjectID()
		product := primitive.NewObjectID()
		user := &entity.User{
			ID:        id.Hex(),
			Name:      "Test User",
			Email:     testEmail,
			Password:  "hashedpass",
			Role:      entity.RoleAdmin,
			Wishlist:  []string{product.Hex(), "not-an-id"},
			Addresses: []entity.Address{{Alias: "home", City: "Cairo"}},
		}

		doc := mapper.ToDocument(user)
		require.NotNil(t, doc)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "admin", doc.Role)
		assert.Equal(t, "hashedpass", doc.Password)
		assert.Equal(t, []primitive.ObjectID{product}, doc.Wishlist)
		require.Len(t, doc.Addresses, 1)
		assert.False(t, doc.Addresses[0].ID.IsZero(), "new addresses get an id")
	})

	t.Run("new user has zero id", func(t *testing.T) {
		doc := mapper.ToDocument(&entity.User{Email: testEmail})
		assert.True(t, doc.ID.IsZero())
		assert.NotNil(t, doc.Wishlist)
		assert.NotNil(t, doc.Addresses)
	})
}

func TestUserMapper_ToEntity(t *testing.T) {
	mapper := NewUserMapper()

	t.Run("nil document", func(t *testing.T) {
		assert.Nil(t, mapper.ToEntity(nil))
	})

	t.Run("valid document", func(t *testing.T) {
		now := time.Now()
		addressID := primitive.NewObjectID()
		doc := &document.UserDocument{
			ID:                primitive.NewObjectID(),
			Name:              "Test User",
			Email:             testEmail,
			Role:              "manager",
			PasswordChangedAt: &now,
			Addresses:         []document.AddressDocument{{ID: addressID, Alias: "work"}},
		}

		user := mapper.ToEntity(doc)
		require.NotNil(t, user)
		assert.Equal(t, doc.ID.Hex(), user.ID)
		assert.Equal(t, entity.RoleManager, user.Role)
		assert.Equal(t, &now, user.PasswordChangedAt)
		assert.Empty(t, user.Wishlist)
		assert.NotNil(t, user.Wishlist)
		require.Len(t, user.Addresses, 1)
		assert.Equal(t, addressID.Hex(), user.Addresses[0].ID)
	})
}

func TestResetTokenMapper(t *testing.T) {
	mapper := NewResetTokenMapper()

	assert.Nil(t, mapper.ToDocument(nil))
	assert.Nil(t, mapper.ToEntity(nil))

	token := &entity.ResetToken{
		UserID:    primitive.NewObjectID().Hex(),
		Email:     testEmail,
		RequestID: "0123456789abcdef0123456789abcdef",
		TokenHash: "token-hash",
		OTPHash:   "otp-hash",
		Client:    entity.ClientFingerprint{IP: "127.0.0.1", Agent: "Chrome 120.0 / Linux"},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	doc := mapper.ToDocument(token)
	require.NotNil(t, doc)
	assert.True(t, doc.ID.IsZero())
	assert.Equal(t, "token-hash", doc.Token)
	assert.Equal(t, "otp-hash", doc.OTP)

	back := mapper.ToEntity(doc)
	assert.Equal(t, token, back)
}
