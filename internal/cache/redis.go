package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Redis is a Cache backed by a redis server and shared between SAM
// instances
type Redis struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedis connects to the redis server described by opts
func NewRedis(ctx context.Context, opts *redis.Options, defaultTTL time.Duration) (*Redis, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "cache: could not connect to redis")
	}
	return &Redis{
		client:     client,
		defaultTTL: defaultTTL,
	}, nil
}

// Get implements the Cache interface
func (r *Redis) Get(ctx context.Context, key string, target any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "cache: get failed")
	}
	return true, errors.WithStack(msgpack.Unmarshal(data, target))
}

// Set implements the Cache interface
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return errors.Wrap(r.client.Set(ctx, key, data, ttl).Err(), "cache: set failed")
}

// Delete implements the Cache interface
func (r *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, key).Err(), "cache: delete failed")
}

// Clear implements the Cache interface
func (r *Redis) Clear(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "cache: scan failed")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.client.Del(ctx, keys...).Err(), "cache: delete failed")
}

// Close closes the connection to the redis server
func (r *Redis) Close() error {
	return errors.WithStack(r.client.Close())
}
