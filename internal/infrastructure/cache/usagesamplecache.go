package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"metergate/internal/shared/logger"
)

const (
	// Key format: usage_sample:{org}:{metric}
	sampleKeyPrefix = "usage_sample:"

	// SampleRetention bounds how long samples are kept; anything older is
	// useless for spike and projection math.
	SampleRetention = 49 * time.Hour
)

// UsageSample is one observed counter value at a point in time.
type UsageSample struct {
	At    time.Time
	Count int64
}

// UsageSampleCache keeps a short history of counter observations per
// (organization, metric) so the alerting engine can compute growth rates.
// Backed by a Redis sorted set scored by unix timestamp; shared state, so
// every instance sees the same history.
type UsageSampleCache interface {
	// RecordSample appends an observation for the current time.
	RecordSample(ctx context.Context, orgSID, metric string, count int64) error

	// GetSince returns samples observed after cutoff, oldest first.
	GetSince(ctx context.Context, orgSID, metric string, cutoff time.Time) ([]UsageSample, error)

	// PruneBefore drops samples older than cutoff for all tracked keys.
	PruneBefore(ctx context.Context, cutoff time.Time) error
}

// RedisUsageSampleCache implements UsageSampleCache using Redis sorted sets.
type RedisUsageSampleCache struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisUsageSampleCache(client *redis.Client, logger logger.Interface) *RedisUsageSampleCache {
	return &RedisUsageSampleCache{
		client: client,
		logger: logger,
	}
}

func sampleKey(orgSID, metric string) string {
	return fmt.Sprintf("%s%s:%s", sampleKeyPrefix, orgSID, metric)
}

func (c *RedisUsageSampleCache) RecordSample(ctx context.Context, orgSID, metric string, count int64) error {
	now := time.Now()
	key := sampleKey(orgSID, metric)

	// Member embeds the timestamp so identical counts at different times
	// stay distinct in the set.
	member := fmt.Sprintf("%d:%d", now.UnixMilli(), count)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe.Expire(ctx, key, SampleRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Errorw("failed to record usage sample",
			"error", err, "org_sid", orgSID, "metric", metric)
		return fmt.Errorf("failed to record usage sample: %w", err)
	}
	return nil
}

func (c *RedisUsageSampleCache) GetSince(ctx context.Context, orgSID, metric string, cutoff time.Time) ([]UsageSample, error) {
	key := sampleKey(orgSID, metric)

	members, err := c.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		c.logger.Errorw("failed to read usage samples",
			"error", err, "org_sid", orgSID, "metric", metric)
		return nil, fmt.Errorf("failed to read usage samples: %w", err)
	}

	samples := make([]UsageSample, 0, len(members))
	for _, member := range members {
		sample, ok := parseSampleMember(member)
		if !ok {
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseSampleMember(member string) (UsageSample, bool) {
	var ms, count int64
	if _, err := fmt.Sscanf(member, "%d:%d", &ms, &count); err != nil {
		return UsageSample{}, false
	}
	return UsageSample{
		At:    time.UnixMilli(ms),
		Count: count,
	}, true
}

func (c *RedisUsageSampleCache) PruneBefore(ctx context.Context, cutoff time.Time) error {
	pattern := sampleKeyPrefix + "*"
	max := strconv.FormatInt(cutoff.UnixMilli(), 10)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", "("+max).Err(); err != nil {
			return fmt.Errorf("failed to prune usage samples: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan sample keys: %w", err)
	}
	return nil
}
