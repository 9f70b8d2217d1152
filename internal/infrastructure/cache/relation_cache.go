// Package cache provides read-side caching for relation lookups.
package cache

import (
	"context"
	"time"

	"github.com/erp/lineage/internal/domain/lineage"
)

// RelationCache caches the relation set of a UID. Get reports a miss with
// ok=false; a hit may legitimately carry an empty slice (a UID with no
// edges is a cacheable answer).
type RelationCache interface {
	Get(ctx context.Context, uid lineage.UID) (relations []lineage.Relation, ok bool, err error)
	Set(ctx context.Context, uid lineage.UID, relations []lineage.Relation, ttl time.Duration) error
	Invalidate(ctx context.Context, uids ...lineage.UID) error
	Close() error
}
