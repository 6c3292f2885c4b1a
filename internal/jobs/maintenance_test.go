package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
	"github.com/jrjohn/arcana-commerce-go/internal/testutil/mocks"
)

var sweepNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestMaintenance(locker Locker) (*Maintenance, *mocks.MockResetTokenDAO, *mocks.MockDocumentDAO) {
	tokens := mocks.NewMockResetTokenDAO()
	coupons := mocks.NewMockDocumentDAO(dao.CouponsCollection,
		bson.M{"name": "SPRING", "expiresAt": sweepNow.Add(-time.Hour)},
		bson.M{"name": "SUMMER", "expiresAt": sweepNow.Add(24 * time.Hour)},
	)
	m := NewMaintenance(tokens, coupons, 10*time.Minute, "@every 1m", locker, zap.NewNop())
	m.now = func() time.Time { return sweepNow }
	return m, tokens, coupons
}

func TestMaintenance_RunOnce(t *testing.T) {
	m, tokens, coupons := newTestMaintenance(nil)
	ctx := context.Background()

	require.NoError(t, tokens.Upsert(ctx, &entity.ResetToken{UserID: "u1", CreatedAt: sweepNow.Add(-11 * time.Minute)}))
	require.NoError(t, tokens.Upsert(ctx, &entity.ResetToken{UserID: "u2", CreatedAt: sweepNow.Add(-time.Minute)}))

	result, err := m.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.ExpiredTokens)
	assert.Equal(t, int64(1), result.ExpiredCoupons)
	require.Len(t, tokens.Tokens(), 1)
	assert.Equal(t, "u2", tokens.Tokens()[0].UserID)
	require.Len(t, coupons.Docs(), 1)
	assert.Equal(t, "SUMMER", coupons.Docs()[0]["name"])
}

func TestMaintenance_RunOnce_ReportsSweep(t *testing.T) {
	m, tokens, _ := newTestMaintenance(nil)
	ctx := context.Background()
	require.NoError(t, tokens.Upsert(ctx, &entity.ResetToken{UserID: "u1", CreatedAt: sweepNow.Add(-time.Hour)}))

	var reported []SweepResult
	m.OnSweep(func(_ context.Context, r SweepResult) { reported = append(reported, r) })

	_, err := m.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, SweepResult{ExpiredTokens: 1, ExpiredCoupons: 1}, reported[0])
}

func TestMaintenance_RunOnce_TokenError(t *testing.T) {
	m, tokens, _ := newTestMaintenance(nil)
	tokens.DeleteErr = errors.New("connection reset")

	_, err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep reset tokens")
}

func TestMaintenance_RunOnce_Traced(t *testing.T) {
	tp, err := observability.NewTracingProvider(config.TracingConfig{}, observability.ServiceInfo{Name: "worker-test"}, zap.NewNop())
	require.NoError(t, err)

	m, tokens, _ := newTestMaintenance(nil)
	m.Trace(tp)
	ctx := context.Background()
	require.NoError(t, tokens.Upsert(ctx, &entity.ResetToken{UserID: "u1", CreatedAt: sweepNow.Add(-time.Hour)}))

	result, err := m.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{ExpiredTokens: 1, ExpiredCoupons: 1}, result)

	tokens.DeleteErr = errors.New("connection reset")
	_, err = m.RunOnce(ctx)
	assert.ErrorIs(t, err, tokens.DeleteErr)
}

func TestMaintenance_RunOnce_CouponError(t *testing.T) {
	m, _, coupons := newTestMaintenance(nil)
	coupons.DeleteErr = errors.New("connection reset")

	_, err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep coupons")
}

type stubLocker struct {
	err      error
	acquired int
	released int
}

func (l *stubLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) { l.released++ }, nil
}

func TestMaintenance_RunOnce_Locked(t *testing.T) {
	locker := &stubLocker{}
	m, _, _ := newTestMaintenance(locker)

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
}

func TestMaintenance_RunOnce_LockHeldElsewhere(t *testing.T) {
	m, _, coupons := newTestMaintenance(&stubLocker{err: ErrLockNotAcquired})

	_, err := m.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.Len(t, coupons.Docs(), 2)
}

func TestMaintenance_StartInvalidSchedule(t *testing.T) {
	m, _, _ := newTestMaintenance(nil)
	m.schedule = "every now and then"

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid maintenance schedule")
}

func TestMaintenance_StartStop(t *testing.T) {
	m, _, _ := newTestMaintenance(nil)
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
}

type fakeLockClient struct {
	redis.Scripter
	held     map[string]interface{}
	released []string
}

func (f *fakeLockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if _, ok := f.held[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.held[key] = value
	return redis.NewBoolResult(true, nil)
}

func (f *fakeLockClient) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, "", keys, args...)
}

func (f *fakeLockClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	if f.held[keys[0]] == args[0] {
		delete(f.held, keys[0])
		f.released = append(f.released, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLocker(t *testing.T) {
	client := &fakeLockClient{held: map[string]interface{}{}}
	a := NewRedisLocker(client)
	b := NewRedisLocker(client)
	ctx := context.Background()

	release, err := a.Acquire(ctx, "maintenance", time.Minute)
	require.NoError(t, err)

	_, err = b.Acquire(ctx, "maintenance", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	release(ctx)
	assert.Equal(t, []string{lockKeyPrefix + "maintenance"}, client.released)

	_, err = b.Acquire(ctx, "maintenance", time.Minute)
	assert.NoError(t, err)
}
