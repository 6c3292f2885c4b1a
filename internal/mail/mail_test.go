package mail

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []Message
	failures int
	calls    int
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, `"Arcana Shop" <no-reply@shop.test>`, FormatFrom("Arcana Shop", "no-reply@shop.test"))
	assert.Equal(t, "no-reply@shop.test", FormatFrom("", "no-reply@shop.test"))
}

func TestRenderer_ResetPassword(t *testing.T) {
	r := NewRenderer("Arcana")

	msg, err := r.ResetPassword("jane@example.com", ResetPasswordData{
		Name:      "Jane",
		OTP:       "123456",
		Link:      "https://shop.test/reset?token=abc",
		Device:    "Chrome on Linux",
		IP:        "10.0.0.1",
		ExpiresIn: 10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Reset your Arcana password", msg.Subject)
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "https://shop.test/reset?token=abc")
	assert.Contains(t, msg.HTML, "Chrome on Linux")
	assert.Contains(t, msg.Text, "Your verification code is 123456.")
	assert.Contains(t, msg.Text, "10m0s")
}

func TestRenderer_ResetPassword_EscapesName(t *testing.T) {
	msg, err := NewRenderer("Arcana").ResetPassword("x@example.com", ResetPasswordData{Name: "<script>", OTP: "000000"})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "Reset password</a>")
}

func TestDeliver_Retries(t *testing.T) {
	sender := &recordingSender{failures: 2}
	err := deliver(context.Background(), sender, Message{To: "a@b.c"}, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, sender.Sent(), 1)
	assert.Equal(t, 3, sender.calls)
}

func TestDeliver_GivesUp(t *testing.T) {
	sender := &recordingSender{failures: 5}
	err := deliver(context.Background(), sender, Message{To: "a@b.c"}, 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, sender.calls)
}

func TestAsyncDispatcher_DeliversQueuedMail(t *testing.T) {
	sender := &recordingSender{}
	d := NewAsyncDispatcher(sender, zap.NewNop(), PoolConfig{Workers: 2, QueueSize: 10, MaxAttempts: 1})
	require.NoError(t, d.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Dispatch(context.Background(), Message{To: "user@example.com"}))
	}
	require.NoError(t, d.Stop(context.Background()))

	assert.Len(t, sender.Sent(), 5)
	sent, failed, dropped := d.Stats()
	assert.Equal(t, int64(5), sent)
	assert.Zero(t, failed)
	assert.Zero(t, dropped)
}

func TestAsyncDispatcher_NotRunning(t *testing.T) {
	d := NewAsyncDispatcher(&recordingSender{}, zap.NewNop(), PoolConfig{})
	err := d.Dispatch(context.Background(), Message{To: "user@example.com"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestAsyncDispatcher_QueueFull(t *testing.T) {
	d := NewAsyncDispatcher(&recordingSender{}, zap.NewNop(), PoolConfig{QueueSize: 1})
	// Mark running without starting workers so nothing drains the queue.
	d.running.Store(true)

	require.NoError(t, d.Dispatch(context.Background(), Message{To: "first@example.com"}))
	assert.ErrorIs(t, d.Dispatch(context.Background(), Message{To: "second@example.com"}), ErrQueueFull)

	_, _, dropped := d.Stats()
	assert.Equal(t, int64(1), dropped)
}

func TestAsyncDispatcher_StartTwice(t *testing.T) {
	d := NewAsyncDispatcher(&recordingSender{}, zap.NewNop(), PoolConfig{})
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop(context.Background())
	assert.Error(t, d.Start(context.Background()))
}

type fakeQueue struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{lists: map[string][]string{}}
}

func (q *fakeQueue) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		var s string
		switch t := v.(type) {
		case []byte:
			s = string(t)
		case string:
			s = t
		}
		q.lists[key] = append([]string{s}, q.lists[key]...)
	}
	return redis.NewIntResult(int64(len(q.lists[key])), nil)
}

func (q *fakeQueue) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, key := range keys {
		list := q.lists[key]
		if len(list) == 0 {
			continue
		}
		last := list[len(list)-1]
		q.lists[key] = list[:len(list)-1]
		return redis.NewStringSliceResult([]string{key, last}, nil)
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (q *fakeQueue) list(key string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.lists[key]...)
}

func TestRedisDispatcher_EnqueueAndProcess(t *testing.T) {
	queue := newFakeQueue()
	sender := &recordingSender{}
	d := NewRedisDispatcher(queue, sender, zap.NewNop(), PoolConfig{MaxAttempts: 1})

	require.NoError(t, d.Dispatch(context.Background(), Message{To: "jane@example.com", Subject: "hi"}))
	require.Len(t, queue.list(queueKey), 1)

	var queued Message
	require.NoError(t, json.Unmarshal([]byte(queue.list(queueKey)[0]), &queued))
	assert.Equal(t, "jane@example.com", queued.To)

	assert.True(t, d.processNext(context.Background(), zap.NewNop()))
	assert.False(t, d.processNext(context.Background(), zap.NewNop()))

	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "hi", sender.Sent()[0].Subject)
	assert.Empty(t, queue.list(deadLetterKey))
}

func TestRedisDispatcher_DeadLetters(t *testing.T) {
	queue := newFakeQueue()
	sender := &recordingSender{failures: 10}
	d := NewRedisDispatcher(queue, sender, zap.NewNop(), PoolConfig{MaxAttempts: 2, Backoff: time.Millisecond})

	require.NoError(t, d.Dispatch(context.Background(), Message{To: "jane@example.com"}))
	assert.True(t, d.processNext(context.Background(), zap.NewNop()))

	assert.Empty(t, queue.list(queueKey))
	require.Len(t, queue.list(deadLetterKey), 1)
	assert.True(t, strings.Contains(queue.list(deadLetterKey)[0], "jane@example.com"))
}

func TestRedisDispatcher_MalformedPayload(t *testing.T) {
	queue := newFakeQueue()
	queue.LPush(context.Background(), queueKey, "not json")
	sender := &recordingSender{}
	d := NewRedisDispatcher(queue, sender, zap.NewNop(), PoolConfig{})

	assert.True(t, d.processNext(context.Background(), zap.NewNop()))
	assert.Empty(t, sender.Sent())
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	s := &SESSender{client: client, from: `"Arcana" <no-reply@shop.test>`, logger: zap.NewNop()}

	err := s.Send(context.Background(), Message{To: "jane@example.com", Subject: "Reset", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, `"Arcana" <no-reply@shop.test>`, aws.ToString(client.input.Source))
	assert.Equal(t, []string{"jane@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Reset", aws.ToString(client.input.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(client.input.Message.Body.Html.Data))
	assert.Equal(t, "hi", aws.ToString(client.input.Message.Body.Text.Data))
}

func TestSESSender_SendError(t *testing.T) {
	s := &SESSender{client: &fakeSES{err: errors.New("throttled")}, logger: zap.NewNop()}
	err := s.Send(context.Background(), Message{To: "jane@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
