package notification

import (
	"context"
	"sync"
	"time"

	"metergate/internal/domain/alert"
	"metergate/internal/shared/logger"
)

// RetryQueueConfig tunes the delivery retry queue.
type RetryQueueConfig struct {
	// Interval is the base delay; attempt n waits n*Interval (linear backoff).
	Interval time.Duration
	// MaxRetries caps delivery attempts per item before it is dropped.
	MaxRetries int
	// Size bounds the queue; enqueueing into a full queue drops the item.
	Size int
}

type retryItem struct {
	channel  Channel
	alert    *alert.Alert
	config   *alert.NotificationConfig
	attempts int
	nextAt   time.Time
}

// RetryQueue holds failed deliveries in process memory and redrives them
// with linear backoff. Delivery retry is best-effort: the queue is lost on
// process exit, and full-queue or exhausted items are dropped with a log.
type RetryQueue struct {
	cfg    RetryQueueConfig
	logger logger.Interface

	mu      sync.Mutex
	items   []retryItem
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewRetryQueue(cfg RetryQueueConfig, log logger.Interface) *RetryQueue {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Size <= 0 {
		cfg.Size = 1024
	}
	return &RetryQueue{
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Enqueue schedules a failed delivery for its first retry. Returns false
// when the queue is full and the item was dropped.
func (q *RetryQueue) Enqueue(ch Channel, a *alert.Alert, cfg *alert.NotificationConfig) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.cfg.Size {
		q.logger.Warnw("retry queue full, dropping delivery",
			"channel", ch.Name(), "alert_sid", a.SID())
		return false
	}

	q.items = append(q.items, retryItem{
		channel: ch,
		alert:   a,
		config:  cfg,
		nextAt:  time.Now().Add(q.cfg.Interval),
	})
	return true
}

// Len returns the number of pending retries.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Start launches the drain loop. Call Stop to shut it down. Starting an
// already-started queue is a no-op.
func (q *RetryQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go q.run(ctx)
}

func (q *RetryQueue) run(ctx context.Context) {
	defer close(q.doneCh)

	ticker := time.NewTicker(q.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.Drain(ctx)
		}
	}
}

// Stop terminates the drain loop and waits for it to finish. Safe to call
// on a queue that was never started.
func (q *RetryQueue) Stop() {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()

	q.stopOnce.Do(func() { close(q.stopCh) })
	if started {
		<-q.doneCh
	}
}

// Drain attempts every due item once. Successful deliveries leave the
// queue; failures are rescheduled with linear backoff until MaxRetries.
func (q *RetryQueue) Drain(ctx context.Context) {
	now := time.Now()

	q.mu.Lock()
	due := make([]retryItem, 0)
	remaining := q.items[:0]
	for _, item := range q.items {
		if item.nextAt.After(now) {
			remaining = append(remaining, item)
		} else {
			due = append(due, item)
		}
	}
	q.items = remaining
	q.mu.Unlock()

	for _, item := range due {
		err := item.channel.Send(ctx, item.alert, item.config)
		if err == nil {
			q.logger.Infow("alert delivery retried successfully",
				"channel", item.channel.Name(), "alert_sid", item.alert.SID(),
				"attempt", item.attempts+1)
			continue
		}

		item.attempts++
		if item.attempts >= q.cfg.MaxRetries {
			q.logger.Errorw("alert delivery abandoned after max retries",
				"channel", item.channel.Name(), "alert_sid", item.alert.SID(),
				"attempts", item.attempts, "error", err)
			continue
		}

		item.nextAt = now.Add(time.Duration(item.attempts+1) * q.cfg.Interval)
		q.mu.Lock()
		if len(q.items) < q.cfg.Size {
			q.items = append(q.items, item)
		} else {
			q.logger.Warnw("retry queue full during requeue, dropping delivery",
				"channel", item.channel.Name(), "alert_sid", item.alert.SID())
		}
		q.mu.Unlock()
	}
}
