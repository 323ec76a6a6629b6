package simulation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "civsim:summary:"

// Cache keeps finished run summaries in Redis.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ SummaryCache = (*Cache)(nil)

func NewCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cache {
	logger.Debug("Initializing simulation summary cache", "ttl", ttl)
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func summaryKey(id string) string {
	return summaryKeyPrefix + id
}

func (c *Cache) Get(ctx context.Context, id string) (*Summary, error) {
	raw, err := c.client.Get(ctx, summaryKey(id)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached summary: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn("Discarding undecodable cached summary", "run_id", id, "error", err)
		return nil, nil
	}
	return &summary, nil
}

func (c *Cache) Set(ctx context.Context, summary *Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(summary.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}
