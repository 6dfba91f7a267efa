package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
	"github.com/redis/go-redis/v9"
)

const configSnapshotKey = "escrow:config:snapshot"

// ConfigSnapshotCache fronts the app config row with a short-lived Redis
// snapshot. Cache trouble degrades to a direct database read; config lookups
// must never fail because Redis is down.
type ConfigSnapshotCache struct {
	client *redis.Client
	source ports.AppConfigRepository
	ttl    time.Duration
}

func NewConfigSnapshotCache(client *redis.Client, source ports.AppConfigRepository, ttl time.Duration) *ConfigSnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ConfigSnapshotCache{client: client, source: source, ttl: ttl}
}

func (c *ConfigSnapshotCache) Snapshot(ctx context.Context) (*domain.AppConfig, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, configSnapshotKey).Bytes()
		if err == nil {
			var cfg domain.AppConfig
			if uerr := json.Unmarshal(raw, &cfg); uerr == nil {
				return &cfg, nil
			}
			// A corrupt snapshot falls through to the source of truth.
			c.client.Del(ctx, configSnapshotKey)
		} else if err != redis.Nil {
			slog.Default().WarnContext(ctx, "config snapshot read failed",
				"module", "cache", "layer", "adapter", "operation", "config_snapshot", "error", err)
		}
	}

	cfg, err := c.source.Get(ctx)
	if err != nil {
		return nil, err
	}
	if c.client != nil {
		if blob, merr := json.Marshal(cfg); merr == nil {
			if serr := c.client.Set(ctx, configSnapshotKey, blob, c.ttl).Err(); serr != nil {
				slog.Default().WarnContext(ctx, "config snapshot write failed",
					"module", "cache", "layer", "adapter", "operation", "config_snapshot", "error", serr)
			}
		}
	}
	return cfg, nil
}

// Invalidate drops the snapshot so the next read hits the database.
func (c *ConfigSnapshotCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, configSnapshotKey).Err(); err != nil {
		slog.Default().WarnContext(ctx, "config snapshot invalidate failed",
			"module", "cache", "layer", "adapter", "operation", "config_invalidate", "error", err)
	}
}
