package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a cached record is served without a re-read.
const DefaultCacheTTL = 10 * time.Minute

var _ Store = (*Cached)(nil)

// Cached is a read-through Redis cache in front of another store. Upserts go
// to the backing store first and then drop the cached copy.
type Cached struct {
	next   Store
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps next with a cache on client.
func NewCached(next Store, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, client: client, ttl: ttl, logger: logger.Named("cache")}
}

func cacheKey(guildID, featureKey string) string {
	return fmt.Sprintf("guildwiz:config:%s:%s", guildID, featureKey)
}

// Read serves from Redis when possible. Cache errors fall back to the
// backing store.
func (c *Cached) Read(ctx context.Context, guildID, featureKey string) (wizard.Record, bool, error) {
	key := cacheKey(guildID, featureKey)
	log := c.logger.With(zap.String("key", key))

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if rec, derr := decode(data); derr == nil {
			log.Debug("cache hit")
			return rec, true, nil
		}
		log.Warn("dropping undecodable cache entry")
	case errors.Is(err, redis.Nil):
		log.Debug("cache miss")
	default:
		log.Warn("cache read failed", zap.Error(err))
	}

	rec, ok, err := c.next.Read(ctx, guildID, featureKey)
	if err != nil || !ok {
		return rec, ok, err
	}
	if data, err := encode(rec); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn("cache fill failed", zap.Error(err))
		}
	}
	return rec, true, nil
}

// Upsert writes through and invalidates the cached record.
func (c *Cached) Upsert(ctx context.Context, guildID, featureKey string, rec wizard.Record) error {
	if err := c.next.Upsert(ctx, guildID, featureKey, rec); err != nil {
		return err
	}
	key := cacheKey(guildID, featureKey)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		// the record is saved; a stale entry expires after the TTL
		c.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (c *Cached) Close() error {
	return errors.Join(c.client.Close(), c.next.Close())
}
