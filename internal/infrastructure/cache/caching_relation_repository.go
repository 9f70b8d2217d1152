package cache

import (
	"context"
	"time"

	"github.com/erp/lineage/internal/domain/lineage"
	"go.uber.org/zap"
)

// CachingRelationRepository decorates a lineage.RelationRepository with a
// read-through RelationCache. Writes invalidate both endpoints of the new
// edge so the next lookup repopulates from the store. Cache failures are
// logged and swallowed; the store stays authoritative.
type CachingRelationRepository struct {
	inner  lineage.RelationRepository
	cache  RelationCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingRelationRepository wraps a relation repository with a cache.
func NewCachingRelationRepository(inner lineage.RelationRepository, cache RelationCache, ttl time.Duration, logger *zap.Logger) *CachingRelationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingRelationRepository{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Add appends the edge to the underlying store and invalidates the cached
// relation sets of both endpoints.
func (r *CachingRelationRepository) Add(ctx context.Context, relation *lineage.Relation) error {
	if err := r.inner.Add(ctx, relation); err != nil {
		return err
	}

	if err := r.cache.Invalidate(ctx, relation.SourceUID, relation.TargetUID); err != nil {
		r.logger.Warn("failed to invalidate relation cache",
			zap.String("source_uid", string(relation.SourceUID)),
			zap.String("target_uid", string(relation.TargetUID)),
			zap.Error(err),
		)
	}
	return nil
}

// FindByUID serves the relation set from the cache when possible, reading
// through to the store on a miss.
func (r *CachingRelationRepository) FindByUID(ctx context.Context, uid lineage.UID) ([]lineage.Relation, error) {
	if cached, ok, err := r.cache.Get(ctx, uid); err == nil && ok {
		return cached, nil
	} else if err != nil && ctx.Err() == nil {
		r.logger.Warn("relation cache read failed", zap.String("uid", string(uid)), zap.Error(err))
	}

	relations, err := r.inner.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, uid, relations, r.ttl); err != nil {
		r.logger.Warn("relation cache write failed", zap.String("uid", string(uid)), zap.Error(err))
	}
	return relations, nil
}

var _ lineage.RelationRepository = (*CachingRelationRepository)(nil)
