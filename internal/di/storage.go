package di

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/crud"
	"github.com/jrjohn/arcana-commerce-go/internal/media"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/storage"
)

// StorageModule provides image storage and the upload pipeline
var StorageModule = fx.Module("storage",
	fx.Provide(
		provideStorage,
		provideReleaser,
		provideAssetReleaser,
		provideOptimizer,
		provideUploadMiddleware,
	),
)

func provideStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Info("Image storage ready", zap.String("driver", string(cfg.Storage.Driver)))
	return store, nil
}

func provideReleaser(store storage.Storage, logger *zap.Logger) *storage.Releaser {
	return storage.NewReleaser(store, logger)
}

func provideAssetReleaser(releaser *storage.Releaser) crud.AssetReleaser {
	return releaser
}

func provideOptimizer(cfg *config.Config) *media.Optimizer {
	return media.NewOptimizer(cfg.Upload)
}

func provideUploadMiddleware(
	cfg *config.Config,
	optimizer *media.Optimizer,
	store storage.Storage,
	releaser *storage.Releaser,
	logger *zap.Logger,
) *middleware.UploadMiddleware {
	return middleware.NewUploadMiddleware(cfg.Upload, optimizer, store, releaser, logger)
}
