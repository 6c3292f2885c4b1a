// Package mapper converts between domain entities and MongoDB documents.
package mapper

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao/mongo/document"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// UserMapper handles conversion between entity.User and document.UserDocument.
type UserMapper struct{}

// NewUserMapper creates a new UserMapper instance.
func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

// ToDocument converts a domain User entity to a MongoDB document.
// Ids that are not valid hex are dropped.
func (m *UserMapper) ToDocument(user *entity.User) *document.UserDocument {
	if user == nil {
		return nil
	}

	doc := &document.UserDocument{
		ID:                objectID(user.ID),
		Name:              user.Name,
		Email:             user.Email,
		Password:          user.Password,
		Phone:             user.Phone,
		Avatar:            user.Avatar,
		Role:              string(user.Role),
		PasswordChangedAt: user.PasswordChangedAt,
		Wishlist:          make([]primitive.ObjectID, 0, len(user.Wishlist)),
		Addresses:         make([]document.AddressDocument, 0, len(user.Addresses)),
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}

	for _, id := range user.Wishlist {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			doc.Wishlist = append(doc.Wishlist, oid)
		}
	}
	for _, a := range user.Addresses {
		doc.Addresses = append(doc.Addresses, m.AddressToDocument(a))
	}

	return doc
}

// ToEntity converts a MongoDB document to a domain User entity.
func (m *UserMapper) ToEntity(doc *document.UserDocument) *entity.User {
	if doc == nil {
		return nil
	}

	user := &entity.User{
		ID:                hexID(doc.ID),
		Name:              doc.Name,
		Email:             doc.Email,
		Password:          doc.Password,
		Phone:             doc.Phone,
		Avatar:            doc.Avatar,
		Role:              entity.UserRole(doc.Role),
		PasswordChangedAt: doc.PasswordChangedAt,
		Wishlist:          make([]string, 0, len(doc.Wishlist)),
		Addresses:         make([]entity.Address, 0, len(doc.Addresses)),
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}

	for _, id := range doc.Wishlist {
		user.Wishlist = append(user.Wishlist, id.Hex())
	}
	for _, a := range doc.Addresses {
		user.Addresses = append(user.Addresses, m.AddressToEntity(a))
	}

	return user
}

// AddressToDocument converts an address, generating an id when it has none.
func (m *UserMapper) AddressToDocument(a entity.Address) document.AddressDocument {
	id := objectID(a.ID)
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	return document.AddressDocument{
		ID:      id,
		Alias:   a.Alias,
		Details: a.Details,
		Phone:   a.Phone,
		City:    a.City,
		State:   a.State,
		Country: a.Country,
		Pincode: a.Pincode,
	}
}

// AddressToEntity converts an embedded address document.
func (m *UserMapper) AddressToEntity(d document.AddressDocument) entity.Address {
	return entity.Address{
		ID:      hexID(d.ID),
		Alias:   d.Alias,
		Details: d.Details,
		Phone:   d.Phone,
		City:    d.City,
		State:   d.State,
		Country: d.Country,
		Pincode: d.Pincode,
	}
}

func objectID(hex string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

func hexID(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}
