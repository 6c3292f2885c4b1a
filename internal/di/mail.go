package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/mail"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
)

// MailModule provides email rendering and background delivery
var MailModule = fx.Module("mail",
	fx.Provide(
		provideMailSender,
		provideMailRenderer,
		provideMailDispatcher,
	),
)

// backgroundDispatcher is a dispatcher with worker goroutines.
type backgroundDispatcher interface {
	mail.Dispatcher
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

func provideMailSender(cfg *config.Config, logger *zap.Logger) (mail.Sender, error) {
	from := mail.FormatFrom(cfg.App.Name, cfg.Mail.From)
	switch cfg.Mail.Driver {
	case config.MailSES:
		return mail.NewSESSender(context.Background(), cfg.Mail.Region, from, logger)
	case config.MailLog, "":
		return mail.NewLogSender(from, logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver: %s", cfg.Mail.Driver)
	}
}

func provideMailRenderer(cfg *config.AppConfig) *mail.Renderer {
	return mail.NewRenderer(cfg.Name)
}

func provideMailDispatcher(
	lc fx.Lifecycle,
	cfg *config.Config,
	sender mail.Sender,
	client *redis.Client,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) (mail.Dispatcher, error) {
	pool := mail.DefaultPoolConfig()
	if cfg.Mail.Workers > 0 {
		pool.Workers = cfg.Mail.Workers
	}
	if cfg.Mail.QueueSize > 0 {
		pool.QueueSize = cfg.Mail.QueueSize
	}
	if cfg.Mail.MaxAttempts > 0 {
		pool.MaxAttempts = cfg.Mail.MaxAttempts
	}
	if cfg.Mail.Backoff > 0 {
		pool.Backoff = cfg.Mail.Backoff
	}

	var dispatcher backgroundDispatcher
	switch cfg.Mail.Dispatch {
	case config.DispatchRedis:
		if client == nil {
			return nil, fmt.Errorf("mail dispatch %q requires redis.enabled", cfg.Mail.Dispatch)
		}
		dispatcher = mail.NewRedisDispatcher(client, sender, logger, pool)
	case config.DispatchAsync, "":
		async := mail.NewAsyncDispatcher(sender, logger, pool)
		if err := metrics.ObserveMail(async.Stats); err != nil {
			return nil, fmt.Errorf("observe mail pool: %w", err)
		}
		dispatcher = async
	default:
		return nil, fmt.Errorf("unsupported mail dispatch: %s", cfg.Mail.Dispatch)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting mail dispatcher", zap.String("dispatch", string(cfg.Mail.Dispatch)))
			return dispatcher.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping mail dispatcher")
			return dispatcher.Stop(ctx)
		},
	})

	return dispatcher, nil
}
