package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
)

// SecurityModule provides security-related dependencies
var SecurityModule = fx.Module("security",
	fx.Provide(
		provideJWTProvider,
		providePasswordHasher,
		provideSecurityService,
	),
)

func provideJWTProvider(cfg *config.JWTConfig) *security.JWTProvider {
	return security.NewJWTProvider(cfg)
}

func providePasswordHasher(cfg *config.SecurityConfig) *security.PasswordHasher {
	return security.NewPasswordHasher(cfg)
}

func provideSecurityService(jwtProvider *security.JWTProvider, cfg *config.Config) *security.SecurityService {
	return security.NewSecurityService(jwtProvider, cfg)
}
