// Package cache provides the lookup cache of the SAM. Values are stored
// msgpack encoded, so that callers always get their own copy.
package cache

import (
	"context"
	"strings"
	"time"
)

// Prefix is prepended to all keys
const Prefix = "dcaf"

// Cache is a key value cache with expiring entries
type Cache interface {
	// Get decodes the value for key into target and reports whether the key
	// was found
	Get(ctx context.Context, key string, target any) (bool, error)
	// Set stores value for key; a non-positive ttl uses the default lifetime
	// of the cache
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes key
	Delete(ctx context.Context, key string) error
	// Clear removes all keys starting with prefix
	Clear(ctx context.Context, prefix string) error
}

// Key builds a cache key from its parts
func Key(parts ...string) string {
	return Prefix + ":" + strings.Join(parts, ":")
}
