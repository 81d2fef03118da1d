package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metergate/internal/domain/alert"
	"metergate/internal/shared/logger"
)

type flakyChannel struct {
	mu       sync.Mutex
	failures int
	sent     int
}

func (c *flakyChannel) Name() alert.ChannelType { return alert.ChannelWebhook }

func (c *flakyChannel) Send(ctx context.Context, a *alert.Alert, cfg *alert.NotificationConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return errors.New("delivery failed")
	}
	c.sent++
	return nil
}

func (c *flakyChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

func testAlert(t *testing.T) *alert.Alert {
	a, err := alert.NewThresholdAlert("org_a", "api_calls", 80, 82, 82, 100)
	require.NoError(t, err)
	return a
}

func testQueue(cfg RetryQueueConfig) *RetryQueue {
	return NewRetryQueue(cfg, logger.NewLogger())
}

func TestRetryQueue_DrainDeliversDueItems(t *testing.T) {
	q := testQueue(RetryQueueConfig{Interval: time.Millisecond, MaxRetries: 3, Size: 10})
	ch := &flakyChannel{}
	cfg := alert.DefaultNotificationConfig("org_a")

	assert.True(t, q.Enqueue(ch, testAlert(t), cfg))
	assert.Equal(t, 1, q.Len())

	time.Sleep(5 * time.Millisecond)
	q.Drain(context.Background())

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 1, ch.sentCount())
}

func TestRetryQueue_RequeuesFailuresUntilMaxRetries(t *testing.T) {
	q := testQueue(RetryQueueConfig{Interval: time.Millisecond, MaxRetries: 3, Size: 10})
	ch := &flakyChannel{failures: 100}
	cfg := alert.DefaultNotificationConfig("org_a")

	require.True(t, q.Enqueue(ch, testAlert(t), cfg))

	// Each drain consumes one attempt; after MaxRetries the item is dropped.
	for i := 0; i < 5; i++ {
		time.Sleep(10 * time.Millisecond)
		q.Drain(context.Background())
	}

	assert.Equal(t, 0, q.Len(), "exhausted item must leave the queue")
	assert.Equal(t, 0, ch.sentCount())
}

func TestRetryQueue_RecoversAfterTransientFailure(t *testing.T) {
	q := testQueue(RetryQueueConfig{Interval: time.Millisecond, MaxRetries: 5, Size: 10})
	ch := &flakyChannel{failures: 2}
	cfg := alert.DefaultNotificationConfig("org_a")

	require.True(t, q.Enqueue(ch, testAlert(t), cfg))

	for i := 0; i < 6; i++ {
		time.Sleep(10 * time.Millisecond)
		q.Drain(context.Background())
	}

	assert.Equal(t, 1, ch.sentCount())
	assert.Equal(t, 0, q.Len())
}

func TestRetryQueue_StopWithoutStartReturns(t *testing.T) {
	q := testQueue(RetryQueueConfig{Interval: time.Minute, MaxRetries: 3, Size: 10})

	done := make(chan struct{})
	go func() {
		q.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop must return when the drain loop was never started")
	}
}

func TestRetryQueue_StartStopLifecycle(t *testing.T) {
	q := testQueue(RetryQueueConfig{Interval: time.Millisecond, MaxRetries: 3, Size: 10})

	q.Start(context.Background())
	q.Start(context.Background()) // second Start must not spawn another loop
	q.Stop()
}

func TestRetryQueue_FullQueueDropsNewItems(t *testing.T) {
	q := testQueue(RetryQueueConfig{Interval: time.Minute, MaxRetries: 3, Size: 2})
	ch := &flakyChannel{failures: 100}
	cfg := alert.DefaultNotificationConfig("org_a")

	assert.True(t, q.Enqueue(ch, testAlert(t), cfg))
	assert.True(t, q.Enqueue(ch, testAlert(t), cfg))
	assert.False(t, q.Enqueue(ch, testAlert(t), cfg), "full queue must drop")
	assert.Equal(t, 2, q.Len())
}
