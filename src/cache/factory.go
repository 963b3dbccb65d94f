package cache

import (
	"context"
	"fmt"

	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
)

// NewSeriesCache builds the configured backend. Backend "none" and a zero
// TTL return a nil cache, which disables caching.
func NewSeriesCache(ctx context.Context, cfg *models.MConfig, log *logger.Logger) (interfaces.ISeriesCache, error) {
	if cfg.Cache.TTLSeconds <= 0 {
		log.Info("Series cache disabled (ttl_seconds=%d)", cfg.Cache.TTLSeconds)
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "none":
		log.Info("Series cache disabled")
		return nil, nil
	case "memory", "":
		log.Info("Using in-memory series cache (ttl %ds)", cfg.Cache.TTLSeconds)
		return NewMemoryCache(), nil
	case "redis":
		c, err := NewRedisCache(ctx, RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPass,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.Prefix,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Using redis series cache at %s (ttl %ds)", cfg.Cache.RedisAddr, cfg.Cache.TTLSeconds)
		return c, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
