package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/dcaf-go/dcaf/internal/cache"
)

type cachingConf struct {
	RedisAddr   string                  `yaml:"redis_addr"`
	Username    string                  `yaml:"username"`
	Password    string                  `yaml:"password"`
	RedisDB     int                     `yaml:"redis_db"`
	Disabled    bool                    `yaml:"disabled"`
	MaxSize     int                     `yaml:"max_size"`
	MaxLifetime duration.DurationOption `yaml:"max_lifetime"`
}

var defaultCachingConf = cachingConf{
	MaxSize:     1024,
	MaxLifetime: duration.DurationOption(5 * time.Minute),
}

// NewCache creates the server lookup cache: redis if an address is
// configured, in memory otherwise. It returns nil if caching is disabled.
func (c cachingConf) NewCache(ctx context.Context) (cache.Cache, time.Duration, error) {
	if c.Disabled {
		return nil, 0, nil
	}
	ttl := c.MaxLifetime.Duration()
	if c.RedisAddr == "" {
		log.Info("Using in-memory cache")
		return cache.NewMemory(c.MaxSize, ttl), ttl, nil
	}
	r, err := cache.NewRedis(
		ctx, &redis.Options{
			Addr:     c.RedisAddr,
			Username: c.Username,
			Password: c.Password,
			DB:       c.RedisDB,
		}, ttl,
	)
	if err != nil {
		return nil, 0, err
	}
	log.WithField("addr", c.RedisAddr).Info("Loaded Redis Cache")
	return r, ttl, nil
}
