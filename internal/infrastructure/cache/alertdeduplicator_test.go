package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metergate/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestAlertDeduplicator_TryAcquireAlertLock(t *testing.T) {
	mr, client := setupTestRedis(t)
	d := NewAlertDeduplicator(client, time.Hour)
	ctx := context.Background()

	acquired, err := d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 80)
	require.NoError(t, err)
	assert.True(t, acquired, "first acquisition must succeed")

	acquired, err = d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 80)
	require.NoError(t, err)
	assert.False(t, acquired, "repeat within the window must be suppressed")

	// Different threshold is a different key.
	acquired, err = d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 90)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Window elapses: the alert fires again.
	mr.FastForward(2 * time.Hour)
	acquired, err = d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 80)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAlertDeduplicator_ClearAlert(t *testing.T) {
	_, client := setupTestRedis(t)
	d := NewAlertDeduplicator(client, time.Hour)
	ctx := context.Background()

	acquired, err := d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 100)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, d.ClearAlert(ctx, "org_a", "api_calls", 100))

	acquired, err = d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 100)
	require.NoError(t, err)
	assert.True(t, acquired, "cleared alert must be acquirable again")
}

func TestAlertDeduplicator_ClearOrg(t *testing.T) {
	_, client := setupTestRedis(t)
	d := NewAlertDeduplicator(client, time.Hour)
	ctx := context.Background()

	for _, threshold := range []int{80, 90, 100} {
		acquired, err := d.TryAcquireAlertLock(ctx, "org_a", "api_calls", threshold)
		require.NoError(t, err)
		require.True(t, acquired)
	}
	acquired, err := d.TryAcquireAlertLock(ctx, "org_b", "api_calls", 80)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, d.ClearOrg(ctx, "org_a"))

	acquired, err = d.TryAcquireAlertLock(ctx, "org_a", "api_calls", 80)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = d.TryAcquireAlertLock(ctx, "org_b", "api_calls", 80)
	require.NoError(t, err)
	assert.False(t, acquired, "other organizations must keep their suppression")
}

func TestAlertDeduplicator_DefaultWindow(t *testing.T) {
	_, client := setupTestRedis(t)
	d := NewAlertDeduplicator(client, 0)
	assert.Equal(t, DefaultDedupWindow, d.Window())
}
