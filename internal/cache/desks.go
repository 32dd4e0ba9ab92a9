// Package cache keeps the desk catalog in Redis between requests.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/desk-reservation/internal/config"
	"github.com/iliyamo/desk-reservation/internal/model"
)

// DeskCache stores the active desk list as one JSON value.  A nil
// client, a miss or any Redis error reads as a miss, so the catalog
// falls back to the database.
type DeskCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewDeskCache returns nil when caching is disabled or Redis is not
// available; the catalog treats a nil cache as absent.
func NewDeskCache(cfg config.CatalogCacheConfig, rdb *redis.Client) *DeskCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DeskCache{rdb: rdb, key: Key(cfg.Prefix), ttl: ttl}
}

// Key is the Redis key holding the desk list for prefix.
func Key(prefix string) string {
	if prefix == "" {
		prefix = "desks"
	}
	return prefix + ":catalog:active"
}

type payload struct {
	Desks    []model.Desk `json:"desks"`
	CachedAt time.Time    `json:"cached_at"`
}

func (c *DeskCache) LoadDesks(ctx context.Context) ([]model.Desk, bool) {
	bs, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("desk-cache: get: %v", err)
		}
		return nil, false
	}
	desks, ok := decode(bs)
	if !ok {
		_ = c.rdb.Del(ctx, c.key).Err()
	}
	return desks, ok
}

func (c *DeskCache) StoreDesks(ctx context.Context, desks []model.Desk) {
	bs, err := encode(desks, time.Now())
	if err != nil {
		log.Printf("desk-cache: encode: %v", err)
		return
	}
	if err := c.rdb.SetEx(ctx, c.key, bs, c.ttl).Err(); err != nil {
		log.Printf("desk-cache: set: %v", err)
	}
}

func (c *DeskCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		log.Printf("desk-cache: del: %v", err)
	}
}

func encode(desks []model.Desk, at time.Time) ([]byte, error) {
	return json.Marshal(payload{Desks: desks, CachedAt: at.UTC()})
}

func decode(bs []byte) ([]model.Desk, bool) {
	var p payload
	if err := json.Unmarshal(bs, &p); err != nil || p.Desks == nil {
		return nil, false
	}
	return p.Desks, true
}
