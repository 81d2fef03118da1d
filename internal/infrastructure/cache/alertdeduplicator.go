package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// alertKeyPrefix is the prefix for all alert deduplication keys
	alertKeyPrefix = "quota_alert:"
	// DefaultDedupWindow is the default suppression window for repeated alerts
	DefaultDedupWindow = 24 * time.Hour
)

// AlertDeduplicator provides Redis-based alert deduplication shared across
// instances. One key per (org, feature, threshold) suppresses repeats for
// the configured window.
type AlertDeduplicator struct {
	client *redis.Client
	window time.Duration
}

// NewAlertDeduplicator creates a new AlertDeduplicator instance. A
// non-positive window falls back to the default.
func NewAlertDeduplicator(client *redis.Client, window time.Duration) *AlertDeduplicator {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &AlertDeduplicator{client: client, window: window}
}

// Window returns the configured suppression window.
func (d *AlertDeduplicator) Window() time.Duration {
	return d.window
}

// buildKey builds the Redis key for alert deduplication
// Format: quota_alert:{org}:{feature}:{threshold}
func (d *AlertDeduplicator) buildKey(orgSID, feature string, threshold int) string {
	return fmt.Sprintf("%s%s:%s:%d", alertKeyPrefix, orgSID, feature, threshold)
}

// TryAcquireAlertLock atomically checks and acquires an alert lock using SetNX.
// Returns true if the lock was acquired (alert should be sent), false if the
// alert is already suppressed. SetNX keeps the check-and-set race-free across
// multiple instances.
func (d *AlertDeduplicator) TryAcquireAlertLock(ctx context.Context, orgSID, feature string, threshold int) (bool, error) {
	key := d.buildKey(orgSID, feature, threshold)

	acquired, err := d.client.SetNX(ctx, key, "1", d.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire alert lock: %w", err)
	}

	return acquired, nil
}

// ClearAlert clears the suppression for the given alert key. Used when a
// counter is administratively reset mid-period.
func (d *AlertDeduplicator) ClearAlert(ctx context.Context, orgSID, feature string, threshold int) error {
	key := d.buildKey(orgSID, feature, threshold)

	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear alert lock: %w", err)
	}
	return nil
}

// ClearOrg clears every suppression key for the organization.
func (d *AlertDeduplicator) ClearOrg(ctx context.Context, orgSID string) error {
	pattern := fmt.Sprintf("%s%s:*", alertKeyPrefix, orgSID)

	iter := d.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := d.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear alert locks: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan alert locks: %w", err)
	}
	return nil
}
