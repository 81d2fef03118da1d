package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageSampleCache_RecordAndRead(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedisUsageSampleCache(client, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.RecordSample(ctx, "org_a", "api_calls", 100))
	require.NoError(t, c.RecordSample(ctx, "org_a", "api_calls", 150))
	require.NoError(t, c.RecordSample(ctx, "org_a", "exports", 5))

	samples, err := c.GetSince(ctx, "org_a", "api_calls", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, int64(100), samples[0].Count)
	assert.Equal(t, int64(150), samples[1].Count)

	samples, err = c.GetSince(ctx, "org_a", "exports", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(5), samples[0].Count)
}

func TestUsageSampleCache_CutoffExcludesOld(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedisUsageSampleCache(client, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.RecordSample(ctx, "org_a", "api_calls", 100))

	samples, err := c.GetSince(ctx, "org_a", "api_calls", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, samples, "samples before the cutoff must be excluded")
}

func TestUsageSampleCache_PruneBefore(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedisUsageSampleCache(client, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.RecordSample(ctx, "org_a", "api_calls", 100))
	require.NoError(t, c.RecordSample(ctx, "org_b", "api_calls", 200))

	// Prune everything recorded so far.
	require.NoError(t, c.PruneBefore(ctx, time.Now().Add(time.Second)))

	samples, err := c.GetSince(ctx, "org_a", "api_calls", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, samples)

	samples, err = c.GetSince(ctx, "org_b", "api_calls", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, samples)
}
