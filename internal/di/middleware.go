package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
)

// MiddlewareModule provides middleware dependencies
var MiddlewareModule = fx.Module("middleware",
	fx.Provide(
		provideAuthMiddleware,
		provideResetRateLimiter,
	),
)

func provideAuthMiddleware(
	securityService *security.SecurityService,
	users dao.UserDAO,
	logger *zap.Logger,
) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(securityService, users, logger)
}

// provideResetRateLimiter throttles the password reset routes per client.
func provideResetRateLimiter(cfg *config.SecurityConfig) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.ResetRateLimit, cfg.ResetRateBurst, 0)
}
