package persistence

import (
	"context"

	"github.com/erp/lineage/internal/domain/lineage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRelationRepository implements lineage.RelationRepository using GORM.
// The entity_relations table carries a unique index over
// (source_uid, target_uid, relation_type), so re-adding an existing edge
// is a silent no-op rather than an error.
type GormRelationRepository struct {
	db *gorm.DB
}

// NewGormRelationRepository creates a new GormRelationRepository
func NewGormRelationRepository(db *gorm.DB) *GormRelationRepository {
	return &GormRelationRepository{db: db}
}

// Add appends a relation edge. Duplicate edges are discarded at the
// database level via ON CONFLICT DO NOTHING.
func (r *GormRelationRepository) Add(ctx context.Context, relation *lineage.Relation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "source_uid"},
				{Name: "target_uid"},
				{Name: "relation_type"},
			},
			DoNothing: true,
		}).
		Create(relation).Error
}

// FindByUID returns every relation in which the given UID appears as
// either endpoint, oldest first.
func (r *GormRelationRepository) FindByUID(ctx context.Context, uid lineage.UID) ([]lineage.Relation, error) {
	var relations []lineage.Relation
	if err := r.db.WithContext(ctx).
		Where("source_uid = ? OR target_uid = ?", uid, uid).
		Order("created_at ASC").
		Find(&relations).Error; err != nil {
		return nil, err
	}
	return relations, nil
}
