package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"ms-scanner/internal/models"
)

// KeyPrefix namespaces every cached aggregation result so invalidation can
// sweep them without touching unrelated keys.
const KeyPrefix = "scan_frequencies:"

// FrequencyCache caches /scans aggregation results in Redis. Entries expire
// on their own after TTL and are swept eagerly whenever a new scan lands.
type FrequencyCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewFrequencyCache(client *redis.Client, ttl time.Duration) *FrequencyCache {
	return &FrequencyCache{Client: client, TTL: ttl}
}

func cacheKey(filter models.AggregateFilter) string {
	return fmt.Sprintf("%s%d:%d:%s", KeyPrefix, filter.MinFrequency, filter.MaxFrequency, filter.Category)
}

// GetFrequencies returns the cached rows for the filter, or nil on a miss.
func (c *FrequencyCache) GetFrequencies(filter models.AggregateFilter) ([]models.ActivityFrequency, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	payload, err := c.Client.Get(context.Background(), cacheKey(filter)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get frequencies from Redis: %w", err)
	}

	var rows []models.ActivityFrequency
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached frequencies: %w", err)
	}
	return rows, nil
}

// SetFrequencies stores the rows for the filter with the configured TTL.
func (c *FrequencyCache) SetFrequencies(filter models.AggregateFilter, rows []models.ActivityFrequency) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal frequencies: %w", err)
	}

	if err := c.Client.Set(context.Background(), cacheKey(filter), payload, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store frequencies in Redis: %w", err)
	}
	return nil
}

// Invalidate drops every cached aggregation result. Called after each write
// to the scan ledger so readers never see stale counts past a write.
func (c *FrequencyCache) Invalidate() error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ctx := context.Background()
	iter := c.Client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return nil
}
