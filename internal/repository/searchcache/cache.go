package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/geosuggest/internal/db"
	"github.com/kailas-cloud/geosuggest/internal/domain"
)

// DefaultKeyPrefix namespaces cache entries when Options.KeyPrefix is empty.
const DefaultKeyPrefix = "geosuggest:"

// DefaultTTL is used when a cache is created with a non-positive TTL.
const DefaultTTL = 10 * time.Minute

var (
	_ domain.TermSearcher     = (*TermCache)(nil)
	_ domain.LocationSearcher = (*LocationCache)(nil)
)

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a caching decorator.
type Options struct {
	KeyPrefix string
	TTL       time.Duration
	// CacheTotal is a counter vec with labels "source" and "result" ("hit"/"miss").
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// cache holds what both decorators share. Identical in-flight lookups are collapsed.
type cache struct {
	prefix     string
	source     string
	store      store
	ttl        time.Duration
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

func newCache(source string, s store, opts Options) *cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &cache{
		prefix:     prefix,
		source:     source,
		store:      s,
		ttl:        ttl,
		cacheTotal: opts.CacheTotal,
		logger:     logger,
	}
}

func (c *cache) key(id string) string {
	h := sha256.Sum256([]byte(id))
	return c.prefix + "search:" + c.source + ":" + hex.EncodeToString(h[:])
}

func (c *cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(c.source, result).Inc()
	}
}

// load decodes a cached value into dst. Store and decode errors count as a miss.
func (c *cache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search response",
				zap.String("source", c.source), zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to parse cached search response",
			zap.String("source", c.source), zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *cache) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode search response",
			zap.String("source", c.source), zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search response",
			zap.String("source", c.source), zap.String("key", key), zap.Error(err))
	}
}

// lookup serves key from the cache or from fetch, storing fresh successful responses.
// Identical misses share one fetch. The shared fetch is detached from any single
// caller's cancellation; each caller stops waiting when its own ctx is done.
func lookup[T any](
	ctx context.Context, c *cache, key string, fetch func(context.Context) (T, error),
) (T, error) {
	var cached T
	if c.load(ctx, key, &cached) {
		c.incCache("hit")
		return cached, nil
	}
	c.incCache("miss")

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		resp, err := fetch(shared)
		if err != nil {
			return resp, err
		}
		c.save(shared, key, resp)
		return resp, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("%s search: %w", c.source, ctx.Err())
	case res := <-ch:
		resp, _ := res.Val.(T)
		if res.Err != nil {
			return resp, fmt.Errorf("%s search: %w", c.source, res.Err)
		}
		return resp, nil
	}
}

// TermCache caches term-search responses in a key-value store.
type TermCache struct {
	inner domain.TermSearcher
	cache *cache
}

// NewTermCache wraps inner with a response cache.
func NewTermCache(inner domain.TermSearcher, s store, opts Options) *TermCache {
	return &TermCache{inner: inner, cache: newCache("term", s, opts)}
}

// SearchTerm returns a cached response or calls the inner searcher.
func (t *TermCache) SearchTerm(ctx context.Context, req domain.TermRequest) (domain.TermResponse, error) {
	key := t.cache.key(fmt.Sprintf("%s\x00%s\x00%d", req.Site.String(), req.Term, req.Limit))
	return lookup(ctx, t.cache, key, func(ctx context.Context) (domain.TermResponse, error) {
		return t.inner.SearchTerm(ctx, req)
	})
}

// LocationCache caches location-search responses in a key-value store.
type LocationCache struct {
	inner domain.LocationSearcher
	cache *cache
}

// NewLocationCache wraps inner with a response cache.
func NewLocationCache(inner domain.LocationSearcher, s store, opts Options) *LocationCache {
	return &LocationCache{inner: inner, cache: newCache("location", s, opts)}
}

// SearchLocation returns a cached response or calls the inner searcher.
// Centers are keyed to four decimal places (about 11 m).
func (l *LocationCache) SearchLocation(
	ctx context.Context, req domain.LocationRequest,
) (domain.LocationResponse, error) {
	key := l.cache.key(fmt.Sprintf("%s\x00%.4f,%.4f\x00%.0f\x00%s\x00%s\x00%d",
		req.Site.String(),
		req.Area.Center.Latitude, req.Area.Center.Longitude,
		req.Area.RadiusMeters,
		req.Term, req.SortStyle, req.Limit,
	))
	return lookup(ctx, l.cache, key, func(ctx context.Context) (domain.LocationResponse, error) {
		return l.inner.SearchLocation(ctx, req)
	})
}
