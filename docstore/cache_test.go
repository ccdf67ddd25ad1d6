package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a real store and counts Get calls that reach it.
type countingStore struct {
	Store
	mu   sync.Mutex
	gets int
}

func (s *countingStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.Store.Get(ctx, collection, id)
}

func (s *countingStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func newCachedMemStore(t *testing.T) (*CachedStore, *countingStore) {
	t.Helper()
	inner := &countingStore{Store: newMemStore(t)}
	return NewCachedStore(inner, NewMemoryCache(time.Minute), time.Minute, nil), inner
}

func TestCachedStore_ReadThrough(t *testing.T) {
	store, inner := newCachedMemStore(t)
	ctx := context.Background()

	_, err := store.Index(ctx, "teams", "t-1", map[string]interface{}{"team_name": "Platform"}, RefreshWaitFor)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		doc, err := store.Get(ctx, "teams", "t-1")
		require.NoError(t, err)
		assert.Equal(t, "Platform", doc.Source["team_name"])
	}
	assert.Equal(t, 1, inner.getCount())
}

func TestCachedStore_InvalidatesOnWrite(t *testing.T) {
	store, _ := newCachedMemStore(t)
	ctx := context.Background()

	_, err := store.Index(ctx, "teams", "t-1", map[string]interface{}{"team_name": "old"}, RefreshWaitFor)
	require.NoError(t, err)
	_, err = store.Get(ctx, "teams", "t-1")
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "teams", "t-1", map[string]interface{}{"team_name": "new"}, RefreshWaitFor))
	doc, err := store.Get(ctx, "teams", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Source["team_name"])

	require.NoError(t, store.Delete(ctx, "teams", "t-1", RefreshWaitFor))
	_, err = store.Get(ctx, "teams", "t-1")
	assert.True(t, IsNotFound(err))
}

func TestCachedStore_BackgroundInvalidationFinishesOnClose(t *testing.T) {
	inner := &countingStore{Store: newMemStore(t)}
	c := NewMemoryCache(time.Minute)
	store := NewCachedStore(inner, c, time.Minute, nil)
	ctx := context.Background()

	_, err := store.Index(ctx, "teams", "t-1", map[string]interface{}{"team_name": "x"}, RefreshWaitFor)
	require.NoError(t, err)
	_, err = store.Get(ctx, "teams", "t-1")
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "teams", "t-1", map[string]interface{}{"team_name": "y"}, RefreshNone))
	require.NoError(t, store.Close())

	_, ok, err := c.Get(ctx, cacheKey("teams", "t-1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedStore_MissIsNotCached(t *testing.T) {
	store, inner := newCachedMemStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Get(ctx, "teams", "missing")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, 2, inner.getCount())
}

// closingCache records Close calls on top of an in-memory cache.
type closingCache struct {
	*MemoryCache
	closed   int
	closeErr error
}

func (c *closingCache) Close() error {
	c.closed++
	return c.closeErr
}

func TestCachedStore_CloseClosesCache(t *testing.T) {
	c := &closingCache{MemoryCache: NewMemoryCache(time.Minute)}
	store := NewCachedStore(newMemStore(t), c, time.Minute, nil)

	require.NoError(t, store.Close())
	assert.Equal(t, 1, c.closed)
}

func TestCachedStore_CloseReportsCacheError(t *testing.T) {
	c := &closingCache{MemoryCache: NewMemoryCache(time.Minute), closeErr: errors.New("connection reset")}
	store := NewCachedStore(newMemStore(t), c, time.Minute, nil)

	err := store.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close cache: connection reset")
	assert.Equal(t, 1, c.closed)
}

func TestCachedStore_CloseReleasesRedisClient(t *testing.T) {
	client, _ := redismock.NewClientMock()
	store := NewCachedStore(newMemStore(t), NewRedisCache(client), time.Minute, nil)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, client.Close(), redis.ErrClosed)
}

func TestRedisCache(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client)
	ctx := context.Background()
	key := cacheKey("actions", "a-1")

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet(key).RedisNil()

		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet(key).SetVal(`{"action_name":"alert1"}`)

		val, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"action_name":"alert1"}`, string(val))
	})

	t.Run("set and delete", func(t *testing.T) {
		value := []byte(`{"action_name":"alert1"}`)
		mock.ExpectSet(key, value, time.Minute).SetVal("OK")
		mock.ExpectDel(key).SetVal(1)

		require.NoError(t, c.Set(ctx, key, value, time.Minute))
		require.NoError(t, c.Delete(ctx, key))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
