package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrjohn/arcana-commerce-go/internal/testutil"
)

func TestIntegration_RedisLocker(t *testing.T) {
	client := testutil.NewTestRedisClient(t)
	ctx := context.Background()
	a := NewRedisLocker(client)
	b := NewRedisLocker(client)

	release, err := a.Acquire(ctx, "maintenance", time.Minute)
	require.NoError(t, err)

	_, err = b.Acquire(ctx, "maintenance", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	release(ctx)
	exists, err := client.Exists(ctx, lockKeyPrefix+"maintenance").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	releaseB, err := b.Acquire(ctx, "maintenance", time.Minute)
	require.NoError(t, err)

	// A stale release from the previous owner leaves the new lock alone.
	release(ctx)
	exists, err = client.Exists(ctx, lockKeyPrefix+"maintenance").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
	releaseB(ctx)
}
