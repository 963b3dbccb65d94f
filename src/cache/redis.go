package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nday-analyzer/src/models"
)

// RedisConfig holds the connection settings of RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache stores series as JSON payloads under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// -----------------------------------------------------------------------------

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisCacheFromClient(client, cfg.Prefix), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// -----------------------------------------------------------------------------

func (c *RedisCache) Get(ctx context.Context, key string) (models.MPriceSeries, bool, error) {
	var series models.MPriceSeries

	data, err := c.client.Get(ctx, c.wrapKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return series, false, nil
		}
		return series, false, err
	}

	if err := json.Unmarshal(data, &series); err != nil {
		return series, false, fmt.Errorf("decode cached series %s: %w", key, err)
	}
	return series, true, nil
}

// -----------------------------------------------------------------------------

func (c *RedisCache) Set(ctx context.Context, key string, series models.MPriceSeries, ttl time.Duration) error {
	data, err := json.Marshal(series)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.wrapKey(key), data, ttl).Err()
}

// -----------------------------------------------------------------------------

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) wrapKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}
