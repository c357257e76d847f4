package cache

import (
	"context"
	"time"

	"github.com/TwiN/gocache/v2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Memory is an in-process Cache
type Memory struct {
	c          *gocache.Cache
	defaultTTL time.Duration
}

// NewMemory creates an in-process cache holding at most maxSize entries
func NewMemory(maxSize int, defaultTTL time.Duration) *Memory {
	if maxSize <= 0 {
		maxSize = gocache.DefaultMaxSize
	}
	return &Memory{
		c:          gocache.NewCache().WithMaxSize(maxSize).WithEvictionPolicy(gocache.LeastRecentlyUsed),
		defaultTTL: defaultTTL,
	}
}

// Get implements the Cache interface
func (m *Memory) Get(_ context.Context, key string, target any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return false, errors.Errorf("cache: unexpected value type %T for %s", v, key)
	}
	return true, errors.WithStack(msgpack.Unmarshal(data, target))
}

// Set implements the Cache interface
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.SetWithTTL(key, data, ttl)
	return nil
}

// Delete implements the Cache interface
func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Clear implements the Cache interface
func (m *Memory) Clear(_ context.Context, prefix string) error {
	m.c.DeleteKeysByPattern(prefix + "*")
	return nil
}
