package persistence

import (
	"context"
	"sync"

	"github.com/erp/lineage/internal/domain/lineage"
)

// InMemoryRelationRepository is a non-durable lineage.RelationRepository
// for tests and single-process deployments. Deduplication uses the same
// (source, target, type) key as the database unique index.
type InMemoryRelationRepository struct {
	mu    sync.RWMutex
	edges map[string]lineage.Relation
	order []string
}

// NewInMemoryRelationRepository creates an empty in-memory relation store
func NewInMemoryRelationRepository() *InMemoryRelationRepository {
	return &InMemoryRelationRepository{
		edges: make(map[string]lineage.Relation),
	}
}

// Add appends a relation edge, silently discarding duplicates.
func (r *InMemoryRelationRepository) Add(ctx context.Context, relation *lineage.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := relation.Key()
	if _, exists := r.edges[key]; exists {
		return nil
	}
	r.edges[key] = *relation
	r.order = append(r.order, key)
	return nil
}

// FindByUID returns every relation touching the given UID in insertion order.
func (r *InMemoryRelationRepository) FindByUID(ctx context.Context, uid lineage.UID) ([]lineage.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var relations []lineage.Relation
	for _, key := range r.order {
		if edge := r.edges[key]; edge.Involves(uid) {
			relations = append(relations, edge)
		}
	}
	return relations, nil
}

// Len returns the number of stored edges.
func (r *InMemoryRelationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.edges)
}
