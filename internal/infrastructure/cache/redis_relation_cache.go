package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/lineage/internal/domain/lineage"
	"github.com/redis/go-redis/v9"
)

// RedisRelationCache implements RelationCache using Redis.
// This is suitable for distributed deployments where multiple instances
// need to share the relation read cache.
type RedisRelationCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

const defaultKeyPrefix = "lineage:relations:"

// NewRedisRelationCache creates a new Redis-backed relation cache and
// verifies connectivity with a short ping.
func NewRedisRelationCache(cfg RedisConfig, keyPrefix string) (*RedisRelationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRelationCache{client: client, keyPrefix: keyPrefix}, nil
}

// NewRedisRelationCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisRelationCacheWithClient(client *redis.Client, keyPrefix string) *RedisRelationCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRelationCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached relation set for a UID.
func (c *RedisRelationCache) Get(ctx context.Context, uid lineage.UID) ([]lineage.Relation, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+string(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read relation cache: %w", err)
	}

	var relations []lineage.Relation
	if err := json.Unmarshal(payload, &relations); err != nil {
		// Treat a corrupt entry as a miss so the store stays authoritative.
		return nil, false, nil
	}
	return relations, true, nil
}

// Set stores the relation set for a UID with the given TTL.
func (c *RedisRelationCache) Set(ctx context.Context, uid lineage.UID, relations []lineage.Relation, ttl time.Duration) error {
	if relations == nil {
		relations = []lineage.Relation{}
	}
	payload, err := json.Marshal(relations)
	if err != nil {
		return fmt.Errorf("failed to encode relation cache entry: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+string(uid), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write relation cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached relation sets for the given UIDs.
func (c *RedisRelationCache) Invalidate(ctx context.Context, uids ...lineage.UID) error {
	if len(uids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(uids))
	for _, uid := range uids {
		keys = append(keys, c.keyPrefix+string(uid))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate relation cache: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisRelationCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisRelationCache) GetClient() *redis.Client {
	return c.client
}

var _ RelationCache = (*RedisRelationCache)(nil)
