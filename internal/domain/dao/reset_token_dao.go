package dao

import (
	"context"
	"time"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// ResetTokenDAO stores pending password reset requests.
type ResetTokenDAO interface {
	// Upsert replaces any pending request of token.UserID with token.
	Upsert(ctx context.Context, token *entity.ResetToken) error

	// FindByRequest retrieves the request issued to client.
	// Returns nil, nil if no request matches.
	FindByRequest(ctx context.Context, requestID string, client entity.ClientFingerprint) (*entity.ResetToken, error)

	// Delete removes the request with the given id.
	Delete(ctx context.Context, id string) error

	// DeleteCreatedBefore removes requests created before cutoff.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
