package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	serviceimpl "github.com/jrjohn/arcana-commerce-go/internal/domain/service/impl"
	"github.com/jrjohn/arcana-commerce-go/internal/mail"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
)

// ServiceModule provides service layer dependencies
var ServiceModule = fx.Module("service",
	fx.Provide(
		provideAuthService,
		providePasswordResetService,
		provideCatalogService,
		provideAccountService,
	),
)

func provideAuthService(
	users dao.UserDAO,
	jwtProvider *security.JWTProvider,
	passwordHasher *security.PasswordHasher,
) service.AuthService {
	return serviceimpl.NewAuthService(users, jwtProvider, passwordHasher)
}

func providePasswordResetService(
	users dao.UserDAO,
	tokens dao.ResetTokenDAO,
	jwtProvider *security.JWTProvider,
	passwordHasher *security.PasswordHasher,
	mailer mail.Dispatcher,
	renderer *mail.Renderer,
	cfg *config.SecurityConfig,
	logger *zap.Logger,
) service.PasswordResetService {
	return serviceimpl.NewPasswordResetService(users, tokens, jwtProvider, passwordHasher, mailer, renderer, cfg.ResetTokenTTL, logger)
}

func provideCatalogService(collections dao.Collections, reviews dao.ReviewDAO, logger *zap.Logger) service.CatalogService {
	return serviceimpl.NewCatalogService(collections, reviews, logger)
}

func provideAccountService(users dao.UserDAO, collections dao.Collections) service.AccountService {
	return serviceimpl.NewAccountService(users, collections.Users, collections.Products)
}
