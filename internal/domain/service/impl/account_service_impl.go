package impl

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/query"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// accountService implements service.AccountService
type accountService struct {
	users    dao.UserDAO
	userDocs dao.DocumentDAO
	products dao.DocumentDAO
}

// NewAccountService creates a new AccountService instance. userDocs and
// products are the raw collection handles used for population and
// existence checks.
func NewAccountService(users dao.UserDAO, userDocs, products dao.DocumentDAO) service.AccountService {
	return &accountService{users: users, userDocs: userDocs, products: products}
}

func (s *accountService) Wishlist(ctx context.Context, userID string) ([]any, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, service.ErrUserNotFound
	}

	doc, err := s.userDocs.FindOne(ctx, bson.M{"_id": oid}, dao.FindOptions{
		Projection: map[string]bool{"wishlist": true},
		Populate:   []query.Population{{Path: "wishlist"}},
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, service.ErrUserNotFound
	}

	switch items := doc["wishlist"].(type) {
	case primitive.A:
		return []any(items), nil
	case []any:
		return items, nil
	}
	return []any{}, nil
}

func (s *accountService) AddToWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, apperrors.Validation(map[string]string{"productId": "invalid id format"})
	}
	product, err := s.products.FindOne(ctx, bson.M{"_id": pid}, dao.FindOptions{Projection: map[string]bool{"_id": true}})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.Validation(map[string]string{
			"productId": fmt.Sprintf("no product exists with this id %s", productID),
		})
	}

	user, err := s.users.AddToWishlist(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrUserNotFound
	}
	return nonNil(user.Wishlist), nil
}

func (s *accountService) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	user, err := s.users.RemoveFromWishlist(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrUserNotFound
	}
	return nonNil(user.Wishlist), nil
}

func (s *accountService) AddAddress(ctx context.Context, userID string, req *request.AddressRequest) ([]entity.Address, error) {
	user, err := s.users.AddAddress(ctx, userID, entity.Address{
		Alias:   req.Alias,
		Details: req.Details,
		Phone:   req.Phone,
		City:    req.City,
		State:   req.State,
		Country: req.Country,
		Pincode: req.Pincode,
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrUserNotFound
	}
	return nonNil(user.Addresses), nil
}

func (s *accountService) RemoveAddress(ctx context.Context, userID, addressID string) ([]entity.Address, error) {
	user, err := s.users.RemoveAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrUserNotFound
	}
	return nonNil(user.Addresses), nil
}

func (s *accountService) Address(user *entity.User, addressID string) (entity.Address, error) {
	address, ok := user.FindAddress(addressID)
	if !ok {
		return entity.Address{}, service.ErrAddressNotFound
	}
	return address, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
