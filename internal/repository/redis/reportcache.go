package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
)

const keyPrefix = "analytics:"

// ReportCache is a read-through cache for computed analytics reports.
// Reports are snapshots over a closed date range, so a short TTL is enough
// to absorb dashboard refresh bursts without serving stale data for long.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new Redis-backed report cache.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: client,
		ttl:    ttl,
	}
}

// Get loads a cached report into dest. A cache miss is reported as
// NotFound; callers treat any error as a miss.
func (c *ReportCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return apperrors.NotFound("report", key)
		}
		return fmt.Errorf("redis get report: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cached report: %w", err)
	}

	return nil
}

// Set stores a computed report with the configured TTL.
func (c *ReportCache) Set(ctx context.Context, key string, report any) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set report: %w", err)
	}

	return nil
}
