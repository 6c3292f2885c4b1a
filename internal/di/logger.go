package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/pkg/logger"
)

// LoggerModule provides logging dependencies
var LoggerModule = fx.Module("logger",
	fx.Provide(provideLogger),
)

func provideLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	encoding := "json"
	if cfg.Debug {
		encoding = "console"
	}
	return logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Debug,
		Encoding:    encoding,
	})
}
