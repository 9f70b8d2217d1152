package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/lineage/internal/domain/lineage"
)

// cacheEntry holds a cached relation set with expiration
type cacheEntry struct {
	relations []lineage.Relation
	expiresAt time.Time
}

// InMemoryRelationCache implements RelationCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryRelationCache struct {
	mu        sync.RWMutex
	entries   map[lineage.UID]cacheEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRelationCache creates a new in-memory relation cache.
// It starts a background goroutine that removes expired entries every
// cleanupInterval; a non-positive interval defaults to five minutes.
func NewInMemoryRelationCache(cleanupInterval time.Duration) *InMemoryRelationCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	c := &InMemoryRelationCache{
		entries:  make(map[lineage.UID]cacheEntry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)

	return c
}

// Get returns the cached relation set for a UID, reporting a miss for
// absent or expired entries.
func (c *InMemoryRelationCache) Get(ctx context.Context, uid lineage.UID) ([]lineage.Relation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[uid]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}

	out := make([]lineage.Relation, len(e.relations))
	copy(out, e.relations)
	return out, true, nil
}

// Set stores the relation set for a UID with the given TTL.
func (c *InMemoryRelationCache) Set(ctx context.Context, uid lineage.UID, relations []lineage.Relation, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]lineage.Relation, len(relations))
	copy(stored, relations)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[uid] = cacheEntry{
		relations: stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Invalidate drops the cached relation sets for the given UIDs.
func (c *InMemoryRelationCache) Invalidate(ctx context.Context, uids ...lineage.UID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, uid := range uids {
		delete(c.entries, uid)
	}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryRelationCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryRelationCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryRelationCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for uid, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, uid)
		}
	}
}

var _ RelationCache = (*InMemoryRelationCache)(nil)
