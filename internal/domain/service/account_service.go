package service

import (
	"context"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
)

// AccountService manages the wishlist and the address book of a user.
type AccountService interface {
	// Wishlist returns the wishlisted products of userID.
	Wishlist(ctx context.Context, userID string) ([]any, error)

	// AddToWishlist adds an existing product to the wishlist.
	AddToWishlist(ctx context.Context, userID, productID string) ([]string, error)

	// RemoveFromWishlist removes productID from the wishlist.
	RemoveFromWishlist(ctx context.Context, userID, productID string) ([]string, error)

	// AddAddress appends an address to the address book.
	AddAddress(ctx context.Context, userID string, req *request.AddressRequest) ([]entity.Address, error)

	// RemoveAddress removes the address with addressID.
	RemoveAddress(ctx context.Context, userID, addressID string) ([]entity.Address, error)

	// Address returns one address of user.
	Address(user *entity.User, addressID string) (entity.Address, error)
}
