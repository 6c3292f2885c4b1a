package mail

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PoolConfig configures the in-process delivery pool.
type PoolConfig struct {
	Workers         int
	QueueSize       int
	MaxAttempts     int
	Backoff         time.Duration
	SendTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultPoolConfig returns the pool defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:         2,
		QueueSize:       100,
		MaxAttempts:     3,
		Backoff:         2 * time.Second,
		SendTimeout:     30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// AsyncDispatcher delivers emails from a bounded in-memory queue.
type AsyncDispatcher struct {
	config PoolConfig
	sender Sender
	logger *zap.Logger
	queue  chan Message

	running atomic.Bool
	wg      sync.WaitGroup
	stopCh  chan struct{}

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewAsyncDispatcher creates a dispatcher. Call Start before dispatching.
func NewAsyncDispatcher(sender Sender, logger *zap.Logger, config PoolConfig) *AsyncDispatcher {
	defaults := DefaultPoolConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &AsyncDispatcher{
		config: config,
		sender: sender,
		logger: logger,
		queue:  make(chan Message, config.QueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the workers.
func (d *AsyncDispatcher) Start(ctx context.Context) error {
	if d.running.Load() {
		return fmt.Errorf("mail dispatcher already running")
	}
	d.running.Store(true)
	d.logger.Info("Starting mail dispatcher",
		zap.Int("workers", d.config.Workers),
		zap.Int("queue_size", d.config.QueueSize),
	)

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return nil
}

// Stop drains the queue and waits for the workers, up to ShutdownTimeout.
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	if !d.running.Load() {
		return nil
	}
	d.logger.Info("Stopping mail dispatcher")
	d.running.Store(false)
	close(d.stopCh)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Mail dispatcher stopped gracefully")
	case <-time.After(d.config.ShutdownTimeout):
		d.logger.Warn("Mail dispatcher shutdown timed out", zap.Int("pending", len(d.queue)))
	case <-ctx.Done():
		d.logger.Warn("Mail dispatcher shutdown cancelled", zap.Int("pending", len(d.queue)))
	}
	return nil
}

// Dispatch queues msg. It fails with ErrQueueFull when the queue is full or
// the dispatcher is stopped.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, msg Message) error {
	if !d.running.Load() {
		d.dropped.Add(1)
		return ErrQueueFull
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		d.dropped.Add(1)
		d.logger.Error("Mail queue full, dropping message", zap.String("to", msg.To))
		return ErrQueueFull
	}
}

// Stats returns sent, failed and dropped counts.
func (d *AsyncDispatcher) Stats() (sent, failed, dropped int64) {
	return d.sent.Load(), d.failed.Load(), d.dropped.Load()
}

func (d *AsyncDispatcher) worker(id int) {
	defer d.wg.Done()
	logger := d.logger.With(zap.Int("worker_id", id))

	for {
		select {
		case msg := <-d.queue:
			d.send(logger, msg)
		case <-d.stopCh:
			for {
				select {
				case msg := <-d.queue:
					d.send(logger, msg)
				default:
					return
				}
			}
		}
	}
}

func (d *AsyncDispatcher) send(logger *zap.Logger, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()

	if err := deliver(ctx, d.sender, msg, d.config.MaxAttempts, d.config.Backoff); err != nil {
		d.failed.Add(1)
		logger.Error("Failed to deliver email", zap.String("to", msg.To), zap.Error(err))
		return
	}
	d.sent.Add(1)
}
