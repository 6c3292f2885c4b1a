// Package storage keeps uploaded images and hands out their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
)

// ErrForeignURL is returned when a URL does not point into the storage.
var ErrForeignURL = errors.New("url does not belong to this storage")

// Storage stores objects by key.
type Storage interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind url. A missing object is not an error.
	Delete(ctx context.Context, url string) error
}

// New builds the storage selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageLocal, "":
		return NewLocalStorage(cfg.LocalDir, cfg.URLPrefix), nil
	case config.StorageS3:
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// Releaser deletes stored files that no document references anymore.
// Failures are logged and otherwise ignored.
type Releaser struct {
	storage Storage
	logger  *zap.Logger
}

// NewReleaser creates a Releaser on top of s.
func NewReleaser(s Storage, logger *zap.Logger) *Releaser {
	return &Releaser{storage: s, logger: logger}
}

// Release deletes every url.
func (r *Releaser) Release(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := r.storage.Delete(ctx, u); err != nil {
			if errors.Is(err, ErrForeignURL) {
				r.logger.Debug("Skipping foreign asset", zap.String("url", u))
				continue
			}
			r.logger.Warn("Failed to release asset",
				zap.String("url", u),
				zap.Error(err),
			)
		}
	}
}
