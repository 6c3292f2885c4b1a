package dao

import (
	"context"
	"time"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// UserDAO provides typed access to user accounts.
type UserDAO interface {
	// Create inserts user and fills in its ID and timestamps.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by hex id.
	// Returns nil, nil if the user is not found.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByEmail retrieves a user by their email address.
	// Returns nil, nil if the user is not found.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdatePassword replaces the password hash and stamps passwordChangedAt.
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) (*entity.User, error)

	// AddToWishlist adds productID to the wishlist if it is not there yet.
	AddToWishlist(ctx context.Context, id, productID string) (*entity.User, error)

	// RemoveFromWishlist pulls productID from the wishlist.
	RemoveFromWishlist(ctx context.Context, id, productID string) (*entity.User, error)

	// AddAddress appends address, assigning it a new id.
	AddAddress(ctx context.Context, id string, address entity.Address) (*entity.User, error)

	// RemoveAddress pulls the address with addressID.
	RemoveAddress(ctx context.Context, id, addressID string) (*entity.User, error)
}
