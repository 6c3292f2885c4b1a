package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "arcana:jobs:lock:"

// ErrLockNotAcquired is returned when another instance holds the lock.
var ErrLockNotAcquired = errors.New("failed to acquire job lock")

// releaseScript deletes the lock only if this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes a job across instances.
type Locker interface {
	// Acquire takes the lock for name. It returns ErrLockNotAcquired when the
	// lock is held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context), err error)
}

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisLocker is a Locker backed by SET NX with an expiry.
type RedisLocker struct {
	client  lockClient
	ownerID string
}

// NewRedisLocker creates a RedisLocker with a random owner id.
func NewRedisLocker(client lockClient) *RedisLocker {
	return &RedisLocker{client: client, ownerID: uuid.New().String()}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context), error) {
	key := lockKeyPrefix + name
	ok, err := l.client.SetNX(ctx, key, l.ownerID, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return func(ctx context.Context) {
		releaseScript.Run(ctx, l.client, []string{key}, l.ownerID)
	}, nil
}
