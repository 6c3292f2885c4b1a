// Package testutil holds helpers for tests that talk to a real MongoDB or
// Redis. Those tests are skipped unless the matching TEST_* variable is set.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testIDCounter is used to generate unique test IDs
var testIDCounter uint64

// TestConfig holds the addresses of the integration backends
type TestConfig struct {
	RedisAddr string
	MongoURI  string
}

// DefaultTestConfig reads the integration backends from the environment
func DefaultTestConfig() TestConfig {
	return TestConfig{
		RedisAddr: os.Getenv("TEST_REDIS_ADDR"),
		MongoURI:  os.Getenv("TEST_MONGO_URI"),
	}
}

// NewTestMongoDB connects to TEST_MONGO_URI and returns a fresh database
// that is dropped when the test ends.
func NewTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	SkipIfShort(t)

	config := DefaultTestConfig()
	if config.MongoURI == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB ping failed: %v", err)
	}

	db := client.Database(GenerateTestID())

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	return db
}

// NewTestRedisClient connects to TEST_REDIS_ADDR on database 15, which is
// flushed before and after the test.
func NewTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	SkipIfShort(t)

	config := DefaultTestConfig()
	if config.RedisAddr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr: config.RedisAddr,
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		_ = client.Close()
	})

	return client
}

// WaitForCondition waits for a condition to be true
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timeout waiting for condition: %s", message)
}

// GenerateTestID generates a unique test ID using an atomic counter
func GenerateTestID() string {
	id := atomic.AddUint64(&testIDCounter, 1)
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), id)
}

// SkipIfShort skips the test if running in short mode
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping in short mode")
	}
}
