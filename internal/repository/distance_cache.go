package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

const (
	redisDistanceKeyPrefix = "dispatch:dist:"
	redisMetricsKey        = "dispatch:metrics:latest"
)

// distanceKey buckets a coordinate pair. Five decimals ≈ 1 m, well
// under the two-decimal precision distances are carried at.
func distanceKey(a, b model.Location) string {
	return fmt.Sprintf("%s%.5f,%.5f:%.5f,%.5f", redisDistanceKeyPrefix, a.Lat, a.Lon, b.Lat, b.Lon)
}

// CachedDistance decorates a distance oracle with a Redis lookaside
// cache.
//
// Strategy:
//  1. Try Redis first (fast path).
//  2. On miss or any Redis error, compute directly, then cache
//     (fire-and-forget, don't block on errors).
//
// The cache is an accelerator only: the same oracle result comes back
// either way, so hits and misses cannot change an assignment.
func CachedDistance(client *redis.Client, ttl time.Duration, next geo.DistanceFunc) geo.DistanceFunc {
	return func(a, b model.Location) float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		key := distanceKey(a, b)
		if v, err := client.Get(ctx, key).Float64(); err == nil {
			return v
		}

		km := next(a, b)
		_ = client.Set(ctx, key, km, ttl).Err()
		return km
	}
}

// MetricsCache mirrors the latest aggregate metrics to Redis so
// external dashboards can read them without touching the monitor API.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMetricsCache creates the mirror.
func NewMetricsCache(client *redis.Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{client: client, ttl: ttl}
}

// Publish overwrites the latest-metrics key. Errors are returned for
// logging only; the caller never aborts a tick over them.
func (c *MetricsCache) Publish(ctx context.Context, m model.Metrics) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("metrics cache: marshal: %w", err)
	}
	if err := c.client.Set(ctx, redisMetricsKey, doc, c.ttl).Err(); err != nil {
		return fmt.Errorf("metrics cache: set: %w", err)
	}
	return nil
}
