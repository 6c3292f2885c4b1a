package di

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	httpctrl "github.com/jrjohn/arcana-commerce-go/internal/controller/http"
	"github.com/jrjohn/arcana-commerce-go/internal/crud"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
)

// ControllerModule provides HTTP controller dependencies
var ControllerModule = fx.Module("controller",
	fx.Provide(
		provideAuthController,
		provideCatalogController,
		provideAccountController,
		provideSystemController,
	),
)

func provideAuthController(
	authService service.AuthService,
	resetService service.PasswordResetService,
	securityService *security.SecurityService,
	authMiddleware *middleware.AuthMiddleware,
	resetLimiter *middleware.RateLimiter,
) *httpctrl.AuthController {
	return httpctrl.NewAuthController(authService, resetService, securityService, authMiddleware, resetLimiter)
}

func provideCatalogController(
	collections dao.Collections,
	catalogService service.CatalogService,
	passwordHasher *security.PasswordHasher,
	securityService *security.SecurityService,
	authMiddleware *middleware.AuthMiddleware,
	uploads *middleware.UploadMiddleware,
	assets crud.AssetReleaser,
	logger *zap.Logger,
) *httpctrl.CatalogController {
	return httpctrl.NewCatalogController(collections, catalogService, passwordHasher, securityService, authMiddleware, uploads, assets, logger)
}

func provideAccountController(
	accountService service.AccountService,
	securityService *security.SecurityService,
	authMiddleware *middleware.AuthMiddleware,
) *httpctrl.AccountController {
	return httpctrl.NewAccountController(accountService, securityService, authMiddleware)
}

func provideSystemController(
	cfg *config.Config,
	mongoDB *MongoDatabase,
	client *redis.Client,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) *httpctrl.SystemController {
	checks := map[string]httpctrl.HealthCheck{
		"mongo": func(ctx context.Context) error {
			return mongoDB.Client.Ping(ctx, nil)
		},
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return httpctrl.NewSystemController(cfg.App.Version, checks, metrics, cfg.Metrics.Path, logger)
}
