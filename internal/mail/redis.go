package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	queueKey      = "arcana:mail:queue"
	deadLetterKey = "arcana:mail:dlq"
	popTimeout    = time.Second
)

type queueClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisDispatcher pushes emails onto a Redis list that any instance drains.
// Messages that keep failing are moved to a dead-letter list.
type RedisDispatcher struct {
	client      queueClient
	sender      Sender
	logger      *zap.Logger
	workers     int
	maxAttempts int
	backoff     time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRedisDispatcher creates a RedisDispatcher.
func NewRedisDispatcher(client queueClient, sender Sender, logger *zap.Logger, config PoolConfig) *RedisDispatcher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &RedisDispatcher{
		client:      client,
		sender:      sender,
		logger:      logger,
		workers:     config.Workers,
		maxAttempts: config.MaxAttempts,
		backoff:     config.Backoff,
	}
}

// Dispatch enqueues msg.
func (d *RedisDispatcher) Dispatch(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}
	if err := d.client.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}

// Start launches the consumers.
func (d *RedisDispatcher) Start(ctx context.Context) error {
	if d.running.Load() {
		return fmt.Errorf("mail dispatcher already running")
	}
	d.running.Store(true)

	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.consume(runCtx, i)
	}
	d.logger.Info("Started redis mail consumers", zap.Int("workers", d.workers))
	return nil
}

// Stop cancels the consumers and waits for in-flight sends.
func (d *RedisDispatcher) Stop(ctx context.Context) error {
	if !d.running.Load() {
		return nil
	}
	d.running.Store(false)
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("Redis mail consumers shutdown cancelled")
	}
	return nil
}

func (d *RedisDispatcher) consume(ctx context.Context, id int) {
	defer d.wg.Done()
	logger := d.logger.With(zap.Int("worker_id", id))

	for ctx.Err() == nil {
		if !d.processNext(ctx, logger) {
			select {
			case <-ctx.Done():
			case <-time.After(popTimeout):
			}
		}
	}
}

// processNext pops and delivers one message. It returns false when the
// queue was empty or Redis failed.
func (d *RedisDispatcher) processNext(ctx context.Context, logger *zap.Logger) bool {
	res, err := d.client.BRPop(ctx, popTimeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to pop email", zap.Error(err))
		}
		return false
	}
	if len(res) != 2 {
		return false
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		logger.Error("Dropping malformed email payload", zap.Error(err))
		return true
	}

	if err := deliver(ctx, d.sender, msg, d.maxAttempts, d.backoff); err != nil {
		logger.Error("Failed to deliver email, moving to dead letter", zap.String("to", msg.To), zap.Error(err))
		if err := d.client.LPush(context.Background(), deadLetterKey, res[1]).Err(); err != nil {
			logger.Error("Failed to dead-letter email", zap.Error(err))
		}
	}
	return true
}
