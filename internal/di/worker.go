package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	httpctrl "github.com/jrjohn/arcana-commerce-go/internal/controller/http"
	"github.com/jrjohn/arcana-commerce-go/internal/mail"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
)

// WorkerModule runs the background side of the shop without the API: the
// Redis mail consumers and the maintenance sweep, plus a probe server.
var WorkerModule = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	DatabaseModule,
	RedisModule,
	DAOModule,
	MailModule,
	JobsModule,
	fx.Provide(provideSystemController),
	fx.Invoke(
		startMailConsumers,
		startProbeServer,
	),
)

// startMailConsumers forces the dispatcher so its workers start with the app.
func startMailConsumers(cfg *config.Config, _ mail.Dispatcher, logger *zap.Logger) {
	if cfg.Mail.Dispatch != config.DispatchRedis {
		logger.Warn("Mail dispatch is not queued; the worker only runs the maintenance sweep",
			zap.String("dispatch", string(cfg.Mail.Dispatch)),
		)
	}
}

func startProbeServer(lc fx.Lifecycle, cfg *config.JobsConfig, system *httpctrl.SystemController, logger *zap.Logger) {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	system.RegisterRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ProbePort),
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting probe server", zap.String("address", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Probe server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
