package di

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/jobs"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
)

// JobsModule provides the maintenance sweep
var JobsModule = fx.Module("jobs",
	fx.Provide(provideMaintenance),
	fx.Invoke(startMaintenance),
)

func provideMaintenance(
	cfg *config.Config,
	tokens dao.ResetTokenDAO,
	collections dao.Collections,
	client *redis.Client,
	metrics *observability.MetricsProvider,
	tracing *observability.TracingProvider,
	logger *zap.Logger,
) *jobs.Maintenance {
	// Without Redis the sweep runs unlocked, which suits a single instance.
	var locker jobs.Locker
	if client != nil {
		locker = jobs.NewRedisLocker(client)
	}

	m := jobs.NewMaintenance(tokens, collections.Coupons, cfg.Security.ResetTokenTTL, cfg.Jobs.Schedule, locker, logger)
	m.OnSweep(func(ctx context.Context, result jobs.SweepResult) {
		metrics.RecordSweep(ctx, result.ExpiredTokens, result.ExpiredCoupons)
	})
	m.Trace(tracing)
	return m
}

func startMaintenance(lc fx.Lifecycle, m *jobs.Maintenance, cfg *config.JobsConfig, logger *zap.Logger) {
	if !cfg.Enabled {
		logger.Info("Maintenance sweep disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting maintenance sweep", zap.String("schedule", cfg.Schedule))
			return m.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping maintenance sweep")
			return m.Stop(ctx)
		},
	})
}
