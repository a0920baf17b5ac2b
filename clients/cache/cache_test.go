package cache_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/seesharpsoft/multipart-batch-service/clients/cache"
	"github.com/seesharpsoft/multipart-batch-service/logging"
)

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)

	logger := logging.Nop()
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{Address: server.Addr()}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisCache.Close() })

	return redisCache, server
}

func TestUnitTestCacheImplementations(t *testing.T) {
	redisCache, _ := newRedisCache(t)

	for _, tc := range []struct {
		name  string
		cache cache.Cache
	}{
		{name: "in memory", cache: cache.NewInMemoryCache()},
		{name: "redis", cache: redisCache},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			_, err := tc.cache.Get(ctx, "missing")
			require.ErrorIs(t, err, cache.ErrNotFound)

			require.NoError(t, tc.cache.Set(ctx, "key", []byte("value"), time.Minute))
			value, err := tc.cache.Get(ctx, "key")
			require.NoError(t, err)
			require.Equal(t, []byte("value"), value)

			require.NoError(t, tc.cache.Set(ctx, "forever", []byte("value"), -1))
			_, err = tc.cache.Get(ctx, "forever")
			require.NoError(t, err)

			require.NoError(t, tc.cache.Delete(ctx, "key"))
			_, err = tc.cache.Get(ctx, "key")
			require.ErrorIs(t, err, cache.ErrNotFound)

			require.NoError(t, tc.cache.Healthcheck(ctx))
		})
	}
}

func TestUnitTestInMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	inMemory := cache.NewInMemoryCache()

	require.NoError(t, inMemory.Set(ctx, "key", []byte("value"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := inMemory.Get(ctx, "key")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestUnitTestRedisCacheExpiration(t *testing.T) {
	ctx := context.Background()
	redisCache, server := newRedisCache(t)

	require.NoError(t, redisCache.Set(ctx, "key", []byte("value"), time.Second))
	require.True(t, server.Exists("key"))

	server.FastForward(2 * time.Second)

	_, err := redisCache.Get(ctx, "key")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestUnitTestRedisCacheHealthcheckFailsWhenServerIsDown(t *testing.T) {
	redisCache, server := newRedisCache(t)
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.Error(t, redisCache.Healthcheck(ctx))
}

func TestUnitTestNewRedisCacheRequiresAddress(t *testing.T) {
	logger := logging.Nop()

	_, err := cache.NewRedisCache(&cache.RedisConfig{}, &logger)
	require.ErrorIs(t, err, cache.ErrMissingRedisAddress)

	_, err = cache.NewRedisCache(nil, &logger)
	require.ErrorIs(t, err, cache.ErrMissingRedisAddress)
}

func TestUnitTestItemType(t *testing.T) {
	for _, tc := range []struct {
		key      string
		expected string
	}{
		{key: "batch:part-response:GET:abc", expected: "part-response"},
		{key: "batch:part-response:", expected: "part-response"},
		{key: "batch:part-response", expected: ""},
		{key: "plain", expected: ""},
	} {
		require.Equal(t, tc.expected, cache.ItemType(tc.key), tc.key)
	}
}

func TestUnitTestRedisCacheLogsItemType(t *testing.T) {
	server := miniredis.RunT(t)

	var logs bytes.Buffer
	logger, err := logging.NewWithWriter("TRACE", &logs)
	require.NoError(t, err)

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{Address: server.Addr()}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisCache.Close() })

	ctx := context.Background()
	require.NoError(t, redisCache.Set(ctx, "batch:part-response:GET:abc", []byte("{}"), time.Minute))
	_, err = redisCache.Get(ctx, "batch:part-response:GET:abc")
	require.NoError(t, err)

	require.Contains(t, logs.String(), `"item_type":"part-response"`)
	require.Contains(t, logs.String(), "part response cache hit")
}
