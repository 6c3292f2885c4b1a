// Package jobs runs periodic maintenance against the store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
)

const maintenanceLock = "maintenance"

// SweepResult counts what one sweep removed.
type SweepResult struct {
	ExpiredTokens  int64
	ExpiredCoupons int64
}

// Maintenance purges expired reset requests and coupons on a cron schedule.
type Maintenance struct {
	tokens   dao.ResetTokenDAO
	coupons  dao.DocumentDAO
	tokenTTL time.Duration
	schedule string
	locker   Locker
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
	onSweep  func(ctx context.Context, result SweepResult)
	tracing  *observability.TracingProvider
}

// NewMaintenance creates the sweeper. locker may be nil on a single instance.
func NewMaintenance(tokens dao.ResetTokenDAO, coupons dao.DocumentDAO, tokenTTL time.Duration, schedule string, locker Locker, logger *zap.Logger) *Maintenance {
	return &Maintenance{
		tokens:   tokens,
		coupons:  coupons,
		tokenTTL: tokenTTL,
		schedule: schedule,
		locker:   locker,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// OnSweep registers fn to receive the result of every successful sweep.
func (m *Maintenance) OnSweep(fn func(ctx context.Context, result SweepResult)) {
	m.onSweep = fn
}

// Trace runs every sweep inside a span of tp.
func (m *Maintenance) Trace(tp *observability.TracingProvider) {
	m.tracing = tp
}

// Start registers the sweep and starts the scheduler.
func (m *Maintenance) Start(ctx context.Context) error {
	_, err := m.cron.AddFunc(m.schedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := m.RunOnce(runCtx); err != nil && !errors.Is(err, ErrLockNotAcquired) {
			m.logger.Error("Maintenance sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", m.schedule, err)
	}
	m.cron.Start()
	m.logger.Info("Maintenance scheduler started", zap.String("schedule", m.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (m *Maintenance) Stop(ctx context.Context) error {
	cronCtx := m.cron.Stop()
	select {
	case <-cronCtx.Done():
		m.logger.Info("Maintenance scheduler stopped")
	case <-ctx.Done():
		m.logger.Warn("Maintenance scheduler shutdown timed out")
	}
	return nil
}

// RunOnce performs one sweep.
func (m *Maintenance) RunOnce(ctx context.Context) (SweepResult, error) {
	if m.tracing == nil {
		return m.sweep(ctx)
	}

	ctx, span := m.tracing.StartSpan(ctx, "maintenance.sweep")
	defer span.End()

	result, err := m.sweep(ctx)
	if err != nil && !errors.Is(err, ErrLockNotAcquired) {
		observability.RecordSpanError(ctx, err)
		observability.SetSpanStatus(ctx, codes.Error, "sweep failed")
		return result, err
	}
	observability.AddSpanAttributes(ctx,
		attribute.Int64("maintenance.expired_tokens", result.ExpiredTokens),
		attribute.Int64("maintenance.expired_coupons", result.ExpiredCoupons),
	)
	return result, err
}

func (m *Maintenance) sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	if m.locker != nil {
		release, err := m.locker.Acquire(ctx, maintenanceLock, time.Minute)
		if err != nil {
			return result, err
		}
		defer release(context.Background())
	}

	now := m.now()

	n, err := m.tokens.DeleteCreatedBefore(ctx, now.Add(-m.tokenTTL))
	if err != nil {
		return result, fmt.Errorf("sweep reset tokens: %w", err)
	}
	result.ExpiredTokens = n

	n, err = m.coupons.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return result, fmt.Errorf("sweep coupons: %w", err)
	}
	result.ExpiredCoupons = n

	if m.onSweep != nil {
		m.onSweep(ctx, result)
	}
	if result.ExpiredTokens > 0 || result.ExpiredCoupons > 0 {
		m.logger.Info("Maintenance sweep completed",
			zap.Int64("expired_tokens", result.ExpiredTokens),
			zap.Int64("expired_coupons", result.ExpiredCoupons),
		)
	}
	return result, nil
}
