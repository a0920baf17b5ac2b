package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seesharpsoft/multipart-batch-service/logging"
)

// ErrMissingRedisAddress is returned by NewRedisCache without a server address
var ErrMissingRedisAddress = errors.New("redis address must not be empty")

// RedisConfig wraps values used to
// connect to the redis server backing a RedisCache
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisCache keeps serialized part responses in redis, shared by
// every instance of the batch service pointing at the same server.
type RedisCache struct {
	client *redis.Client
	*logging.ServiceLogger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a RedisCache, the connection is established lazily
// and can be verified with Healthcheck
func NewRedisCache(
	cfg *RedisConfig,
	logger *logging.ServiceLogger,
) (*RedisCache, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, ErrMissingRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{
		client:        client,
		ServiceLogger: logger,
	}, nil
}

// ItemType returns the item type segment of a cache key
// `{prefix}:{item type}:...`, e.g. "part-response", or "" if there is none
func ItemType(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// Set stores a part response under key, an expiration of -1 never expires
func (rc *RedisCache) Set(
	ctx context.Context,
	key string,
	value []byte,
	expiration time.Duration,
) error {
	rc.Logger.Trace().
		Str("item_type", ItemType(key)).
		Str("key", key).
		Int("size", len(value)).
		Dur("expiration", expiration).
		Msg("storing part response in redis")

	// zero expiration means no expiration to redis
	if expiration == -1 {
		expiration = 0
	}

	if err := rc.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("storing %s in redis: %w", ItemType(key), err)
	}

	return nil
}

// Get returns the part response stored under key, ErrNotFound on a miss
func (rc *RedisCache) Get(
	ctx context.Context,
	key string,
) ([]byte, error) {
	val, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		rc.Logger.Trace().
			Str("item_type", ItemType(key)).
			Str("key", key).
			Msg("part response cache miss")
		return nil, ErrNotFound
	}
	if err != nil {
		rc.Logger.Error().
			Str("item_type", ItemType(key)).
			Str("key", key).
			Err(err).
			Msg("error reading part response from redis")
		return nil, err
	}

	rc.Logger.Trace().
		Str("item_type", ItemType(key)).
		Str("key", key).
		Int("size", len(val)).
		Msg("part response cache hit")

	return val, nil
}

// Delete evicts the part response stored under key
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	rc.Logger.Trace().
		Str("item_type", ItemType(key)).
		Str("key", key).
		Msg("evicting part response from redis")

	return rc.client.Del(ctx, key).Err()
}

// Healthcheck pings the redis server
func (rc *RedisCache) Healthcheck(ctx context.Context) error {
	if _, err := rc.client.Ping(ctx).Result(); err != nil {
		rc.Logger.Error().
			Err(err).
			Msg("can't ping redis")
		return fmt.Errorf("error connecting to Redis: %w", err)
	}

	return nil
}

// Close closes the connections to the redis server
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
