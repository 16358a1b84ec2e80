package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/training-centre-booking/internal/config"
	"github.com/iliyamo/training-centre-booking/internal/model"
)

// RedisOfferingCache stores single offerings as JSON strings under
// "<prefix>:<id>". A nil *RedisOfferingCache is valid and caches nothing.
type RedisOfferingCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisOfferingCache returns nil when caching is disabled or Redis is
// unavailable.
func NewRedisOfferingCache(rdb redis.Cmdable, cfg config.CacheConfig) *RedisOfferingCache {
	if rdb == nil || !cfg.Enabled {
		return nil
	}
	return &RedisOfferingCache{rdb: rdb, prefix: cfg.Prefix, ttl: cfg.TTL}
}

func (c *RedisOfferingCache) key(id uint64) string {
	return c.prefix + ":" + strconv.FormatUint(id, 10)
}

func (c *RedisOfferingCache) Get(ctx context.Context, id uint64) (model.Offering, bool) {
	if c == nil {
		return model.Offering{}, false
	}
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("offering_id", id).Warn("offering cache read failed")
		}
		return model.Offering{}, false
	}
	var o model.Offering
	if err := json.Unmarshal(raw, &o); err != nil {
		logrus.WithError(err).WithField("offering_id", id).Warn("offering cache entry is corrupt")
		return model.Offering{}, false
	}
	return o, true
}

func (c *RedisOfferingCache) Set(ctx context.Context, o model.Offering) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(o.ID), raw, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("offering_id", o.ID).Warn("offering cache write failed")
	}
}

func (c *RedisOfferingCache) Invalidate(ctx context.Context, ids ...uint64) {
	if c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).WithField("keys", keys).Warn("offering cache invalidation failed")
	}
}

type noCache struct{}

func (noCache) Get(context.Context, uint64) (model.Offering, bool) { return model.Offering{}, false }
func (noCache) Set(context.Context, model.Offering)                {}
func (noCache) Invalidate(context.Context, ...uint64)              {}

func orNoCache(c OfferingCache) OfferingCache {
	if c == nil {
		return noCache{}
	}
	return c
}
