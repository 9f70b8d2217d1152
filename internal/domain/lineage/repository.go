package lineage

import (
	"context"
	"sync"

	"github.com/erp/lineage/internal/domain/shared"
)

// ErrResolverNotRegistered is returned when a resolver binding is missing
// or nil
var ErrResolverNotRegistered = shared.NewDomainError("RESOLVER_NOT_REGISTERED", "No status resolver registered for entity type")

// RawRecord is the collaborator-owned raw form of a business record. The
// core never interprets its fields beyond handing it to a StatusResolver.
type RawRecord map[string]any

// RelationRepository is the append-only edge index. Add must be
// idempotent on the (source, target, relation type) triple: concurrent
// adds of the same triple store exactly one relation.
type RelationRepository interface {
	Add(ctx context.Context, relation *Relation) error
	FindByUID(ctx context.Context, uid UID) ([]Relation, error)
}

// EntityRepository resolves raw records by type and UID. It is
// implemented by the surrounding application and injected into this
// core. A missing record is (nil, nil), not an error.
type EntityRepository interface {
	Lookup(ctx context.Context, entityType EntityType, uid UID) (RawRecord, error)
}

// StatusResolver maps a raw record to its canonical status. One resolver
// is registered per entity type.
type StatusResolver func(record RawRecord) BusinessStatus

// ResolverRegistry holds the per-entity-type status resolvers. It is
// populated at startup and safe for concurrent reads afterwards.
type ResolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[EntityType]StatusResolver
}

// NewResolverRegistry creates an empty resolver registry
func NewResolverRegistry() *ResolverRegistry {
	return &ResolverRegistry{
		resolvers: make(map[EntityType]StatusResolver),
	}
}

// Register binds a resolver to an entity type, replacing any previous
// binding
func (r *ResolverRegistry) Register(entityType EntityType, resolver StatusResolver) error {
	if !entityType.IsValid() {
		return ErrUnknownEntityType
	}
	if resolver == nil {
		return ErrResolverNotRegistered
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[entityType] = resolver
	return nil
}

// Registered reports whether a resolver is bound to the entity type
func (r *ResolverRegistry) Registered(entityType EntityType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resolvers[entityType]
	return ok
}

// Resolve applies the resolver bound to the entity type. The second
// return value is false when no resolver is registered; the status is
// then empty and the caller decides how to degrade.
func (r *ResolverRegistry) Resolve(entityType EntityType, record RawRecord) (BusinessStatus, bool) {
	r.mu.RLock()
	resolver, ok := r.resolvers[entityType]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return resolver(record), true
}
