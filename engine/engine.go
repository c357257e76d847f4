// Package engine implements the ticket authority: it matches ticket requests
// against the access rules, issues MAC protected tickets, administers the
// catalog, and revokes tickets.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/internal/cache"
	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/update"
)

// Engine is the ticket authority
type Engine struct {
	backends model.Backends
	keys     psk.Store
	cache    cache.Cache
	cacheTTL time.Duration
	// cacheEpoch counts invalidations; a lookup that read the database
	// before one must not fill the cache. Both are guarded by cacheMu.
	cacheMu    sync.Mutex
	cacheEpoch uint64
	verifier *update.Verifier
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithCache sets the cache used for server lookups
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithUpdateVerifier sets the verifier for update attribute bundles. Without
// one, update requests are rejected.
func WithUpdateVerifier(v *update.Verifier) Option {
	return func(e *Engine) {
		e.verifier = v
	}
}

// WithNotifier sets the Notifier that informs resource servers about
// revoked tickets
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithClock replaces the clock of the engine
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the generator for ticket ids
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// New creates a new Engine
func New(backends model.Backends, keys psk.Store, opts ...Option) *Engine {
	e := &Engine{
		backends: backends,
		keys:     keys,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backends returns the storage backends of the engine
func (e *Engine) Backends() model.Backends {
	return e.backends
}

func serverCacheKey(host string) string {
	return cache.Key("server", host)
}

// server returns the ServerInfo for host, using the cache if configured.
// Cached entries carry no pre-shared key.
func (e *Engine) server(ctx context.Context, host string) (*model.ServerInfo, error) {
	if e.cache == nil {
		return e.backends.Servers.Get(host)
	}
	var cached model.ServerInfo
	found, err := e.cache.Get(ctx, serverCacheKey(host), &cached)
	if err != nil {
		log.WithError(err).WithField("host", host).Warn("server cache lookup failed")
	} else if found {
		return &cached, nil
	}

	e.cacheMu.Lock()
	epoch := e.cacheEpoch
	e.cacheMu.Unlock()
	info, err := e.backends.Servers.Get(host)
	if err != nil {
		return nil, err
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if epoch != e.cacheEpoch {
		return info, nil
	}
	if err = e.cache.Set(ctx, serverCacheKey(host), *info, e.cacheTTL); err != nil {
		log.WithError(err).WithField("host", host).Warn("could not cache server")
	}
	return info, nil
}

func (e *Engine) invalidateServer(ctx context.Context, host string) {
	if e.cache == nil {
		return
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cacheEpoch++
	if err := e.cache.Delete(ctx, serverCacheKey(host)); err != nil {
		log.WithError(err).WithField("host", host).Warn("could not invalidate cached server")
	}
}

// serverKey returns the pre-shared key of a server for the MAC and the
// update hash encryption. The psk store is asked first; servers whose key
// lives only in the catalog are read from the database, never the cache.
func (e *Engine) serverKey(ctx context.Context, host string) (string, error) {
	info, err := e.server(ctx, host)
	if err != nil {
		if model.IsNotFound(err) {
			return "", errors.Wrap(ErrMissingKey, host)
		}
		return "", err
	}
	if e.keys != nil {
		key, err := e.keys.KeyFor(host)
		switch {
		case err == nil && len(key) > 0:
			return string(key), nil
		case err != nil && !errors.Is(err, psk.ErrNotFound):
			return "", err
		}
	}
	if info.PreSharedKey == "" && e.cache != nil {
		if info, err = e.backends.Servers.Get(host); err != nil {
			if model.IsNotFound(err) {
				return "", errors.Wrap(ErrMissingKey, host)
			}
			return "", err
		}
	}
	if info.PreSharedKey == "" {
		return "", errors.Wrap(ErrMissingKey, host)
	}
	return info.PreSharedKey, nil
}
