package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/patrickmn/go-cache"
)

// Cache stores encoded documents by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is an in-process Cache, used when no Redis is configured.
type MemoryCache struct {
	items *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: cache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.items.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// CachedStore serves Get from a cache and invalidates on every write.
// Searches always go to the underlying store.
type CachedStore struct {
	Store
	cache  Cache
	ttl    time.Duration
	logger hclog.Logger

	pending sync.WaitGroup
}

func NewCachedStore(store Store, c Cache, ttl time.Duration, logger hclog.Logger) *CachedStore {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CachedStore{Store: store, cache: c, ttl: ttl, logger: logger.Named("cache")}
}

func cacheKey(collection, id string) string {
	return "docstore:" + collection + "/" + id
}

// Get implements Store.
func (s *CachedStore) Get(ctx context.Context, collection, id string) (Document, error) {
	key := cacheKey(collection, id)

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if ok {
		source := make(map[string]interface{})
		if err := json.Unmarshal(raw, &source); err == nil {
			return Document{ID: id, Source: source}, nil
		}
		s.logger.Warn("dropping undecodable cache entry", "key", key)
	}

	doc, err := s.Store.Get(ctx, collection, id)
	if err != nil {
		return doc, err
	}

	if raw, err := json.Marshal(doc.Source); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return doc, nil
}

// Index implements Store.
func (s *CachedStore) Index(ctx context.Context, collection, id string, source map[string]interface{}, refresh Refresh) (string, error) {
	key, err := s.Store.Index(ctx, collection, id, source, refresh)
	if err != nil {
		return key, err
	}
	s.invalidate(ctx, collection, id, refresh)
	return key, nil
}

// Update implements Store.
func (s *CachedStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}, refresh Refresh) error {
	if err := s.Store.Update(ctx, collection, id, partial, refresh); err != nil {
		return err
	}
	s.invalidate(ctx, collection, id, refresh)
	return nil
}

// Delete implements Store.
func (s *CachedStore) Delete(ctx context.Context, collection, id string, refresh Refresh) error {
	if err := s.Store.Delete(ctx, collection, id, refresh); err != nil {
		return err
	}
	s.invalidate(ctx, collection, id, refresh)
	return nil
}

// Close waits for pending invalidations, then closes the cache and the
// underlying store.
func (s *CachedStore) Close() error {
	s.pending.Wait()

	var result *multierror.Error
	if err := s.cache.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close cache: %w", err))
	}
	if err := s.Store.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// invalidate drops the cached copy. With RefreshNone it happens in the
// background, so a read issued right after the write may still be stale.
func (s *CachedStore) invalidate(ctx context.Context, collection, id string, refresh Refresh) {
	key := cacheKey(collection, id)
	if refresh == RefreshWaitFor {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("cache invalidation failed", "key", key, "error", err)
		}
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.cache.Delete(context.Background(), key); err != nil {
			s.logger.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}()
}
