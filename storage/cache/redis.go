// Package cache keeps computed health breakdowns in Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/dashboard"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
)

const keyPrefix = "monitor:health:"

// HealthCache stores breakdowns as JSON strings that expire after ttl.
// It is safe for concurrent use.
type HealthCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ dashboard.HealthCache = (*HealthCache)(nil) // interface compliance check

func NewHealthCache(rdb *redis.Client, ttl time.Duration) *HealthCache {
	return &HealthCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient builds a client from the app config.
func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func (c *HealthCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *HealthCache) Close() error {
	return c.rdb.Close()
}

// Get returns (Breakdown{}, false, nil) on a miss.
func (c *HealthCache) Get(ctx context.Context, key string) (health.Breakdown, bool, error) {
	val, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return health.Breakdown{}, false, nil
		}
		return health.Breakdown{}, false, errors.Wrap(err, "reading cached breakdown")
	}

	var b health.Breakdown
	if err = json.Unmarshal(val, &b); err != nil {
		return health.Breakdown{}, false, errors.Wrap(err, "decoding cached breakdown")
	}
	return b, true, nil
}

func (c *HealthCache) Set(ctx context.Context, key string, b health.Breakdown) error {
	val, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "encoding breakdown")
	}
	if err = c.rdb.Set(ctx, keyPrefix+key, val, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "caching breakdown")
	}
	return nil
}
