package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
)

// AppModule aggregates all application modules
var AppModule = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	DatabaseModule,
	RedisModule,
	DAOModule,
	SecurityModule,
	StorageModule,
	MailModule,
	ServiceModule,
	MiddlewareModule,
	ControllerModule,
	JobsModule,
	HTTPServerModule,
)

// PrintBanner prints the application startup banner
func PrintBanner(cfg *config.Config, logger *zap.Logger) {
	logger.Info("===========================================")
	logger.Info("        Arcana Commerce Go - Shop API      ")
	logger.Info("===========================================")
	logger.Info("Application Info",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)
	logger.Info("Backends",
		zap.String("database", cfg.Database.Name),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.String("storage", string(cfg.Storage.Driver)),
		zap.String("mail", string(cfg.Mail.Driver)+"/"+string(cfg.Mail.Dispatch)),
	)
	logger.Info("===========================================")
}
