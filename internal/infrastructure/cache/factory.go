package cache

import (
	"fmt"

	"github.com/erp/lineage/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RelationCacheFactory creates relation caches based on configuration
type RelationCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           config.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RelationCacheFactoryOption is a functional option for configuring the factory
type RelationCacheFactoryOption func(*RelationCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RelationCacheFactoryOption {
	return func(f *RelationCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) RelationCacheFactoryOption {
	return func(f *RelationCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRelationCacheFactory creates a new factory
func NewRelationCacheFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...RelationCacheFactoryOption) *RelationCacheFactory {
	f := &RelationCacheFactory{
		redisConfig:           redisCfg,
		cacheConfig:           cacheCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: cacheCfg.MemoryFallback,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed relation cache
func (f *RelationCacheFactory) CreateRedisCache() (RelationCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisRelationCache(redisCfg, f.cacheConfig.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis relation cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory relation cache.
// WARNING: in-memory caches do not share state across process instances,
// so stale reads are possible in distributed deployments.
func (f *RelationCacheFactory) CreateInMemoryCache() RelationCache {
	return NewInMemoryRelationCache(f.cacheConfig.CleanupInterval)
}

// CreateCache creates a relation cache for the configured backend.
// With the redis backend it tries Redis first and falls back to in-memory
// when the fallback is allowed.
func (f *RelationCacheFactory) CreateCache() (RelationCache, error) {
	if f.cacheConfig.Backend == "memory" {
		f.logger.Info("using in-memory relation cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis relation cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for relation cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory relation cache. "+
		"Stale reads are possible in distributed deployments.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
