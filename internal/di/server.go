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
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
	"github.com/jrjohn/arcana-commerce-go/internal/storage"
)

const apiPrefix = "/api/v1"

// HTTPServerModule provides HTTP server dependencies
var HTTPServerModule = fx.Module("http_server",
	fx.Provide(provideGinEngine),
	fx.Provide(provideHTTPServer),
	fx.Invoke(registerHTTPRoutes),
	fx.Invoke(startHTTPServer),
)

func provideGinEngine(cfg *config.Config, metrics *observability.MetricsProvider, logger *zap.Logger) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		router.Use(observability.TracingMiddleware(cfg.App.Name))
	}
	if metrics.Enabled() {
		router.Use(observability.MetricsMiddleware(metrics))
	}
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(middleware.NewCORSConfig(cfg.CORS)))
	router.Use(middleware.ErrorHandler(logger, cfg.App.IsProduction()))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	return router
}

func provideHTTPServer(cfg *config.ServerConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Controllers is a struct that holds all HTTP controllers for fx to inject
type Controllers struct {
	fx.In

	System  *httpctrl.SystemController
	Auth    *httpctrl.AuthController
	Catalog *httpctrl.CatalogController
	Account *httpctrl.AccountController
}

func registerHTTPRoutes(router *gin.Engine, controllers Controllers, store storage.Storage, logger *zap.Logger) {
	controllers.System.RegisterRoutes(router)

	// Locally stored images are served by the API itself.
	if local, ok := store.(*storage.LocalStorage); ok {
		router.Static(local.URLPrefix(), local.Dir())
		logger.Info("Serving uploaded images",
			zap.String("path", local.URLPrefix()),
			zap.String("dir", local.Dir()),
		)
	}

	api := router.Group(apiPrefix)

	controllers.Auth.RegisterRoutes(api)
	controllers.Catalog.RegisterRoutes(api)
	controllers.Account.RegisterRoutes(api)
}

func startHTTPServer(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", zap.String("address", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
