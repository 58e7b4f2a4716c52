package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/launchlens/launchlens_api/internal/models"
)

const snapshotKey = "reports:snapshot"

// snapshotTTL bounds staleness of the chat context between refreshes. The
// cache is purely an optimization: chat falls back to the database on a miss.
const snapshotTTL = 10 * time.Minute

// SnapshotCache caches the trimmed report listing handed to the chat model
// as conversation context.
type SnapshotCache struct {
	redis *RedisClient
}

// NewSnapshotCache creates a new SnapshotCache.
func NewSnapshotCache(redis *RedisClient) *SnapshotCache {
	return &SnapshotCache{redis: redis}
}

// Set stores the current report summaries.
func (c *SnapshotCache) Set(ctx context.Context, summaries []models.ReportSummary) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal report snapshot: %w", err)
	}
	return c.redis.Set(ctx, snapshotKey, string(data), snapshotTTL)
}

// Get retrieves the cached report summaries. A missing key surfaces as an
// error from go-redis (redis.Nil); callers treat any error as a miss.
func (c *SnapshotCache) Get(ctx context.Context) ([]models.ReportSummary, error) {
	data, err := c.redis.Get(ctx, snapshotKey)
	if err != nil {
		return nil, err
	}
	var summaries []models.ReportSummary
	if err := json.Unmarshal([]byte(data), &summaries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report snapshot: %w", err)
	}
	return summaries, nil
}

// Invalidate drops the snapshot after a report is created or deleted.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	return c.redis.Delete(ctx, snapshotKey)
}
