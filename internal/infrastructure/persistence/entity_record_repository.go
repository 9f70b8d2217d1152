package persistence

import (
	"context"
	"errors"

	"github.com/erp/lineage/internal/domain/lineage"
	"github.com/erp/lineage/internal/domain/shared"
	"gorm.io/gorm"
)

// GormEntityRepository implements lineage.EntityRegistry and, through
// Lookup, the lineage.EntityRepository contract used by the trace engine.
type GormEntityRepository struct {
	db *gorm.DB
}

// NewGormEntityRepository creates a new GormEntityRepository
func NewGormEntityRepository(db *gorm.DB) *GormEntityRepository {
	return &GormEntityRepository{db: db}
}

// Save persists a registered entity snapshot, updating on UID conflict.
func (r *GormEntityRepository) Save(ctx context.Context, record *lineage.EntityRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// FindByUID finds a registered entity by UID. Returns (nil, nil) when absent.
func (r *GormEntityRepository) FindByUID(ctx context.Context, uid lineage.UID) (*lineage.EntityRecord, error) {
	var record lineage.EntityRecord
	if err := r.db.WithContext(ctx).
		First(&record, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// UpdateRawStatus rewrites the stored raw status for an entity.
func (r *GormEntityRepository) UpdateRawStatus(ctx context.Context, uid lineage.UID, rawStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&lineage.EntityRecord{}).
		Where("uid = ?", uid).
		Update("raw_status", rawStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Lookup satisfies lineage.EntityRepository: it flattens the stored
// snapshot into the raw record the trace engine hands to resolvers.
// A record whose stored type does not match the requested type is
// treated as not found.
func (r *GormEntityRepository) Lookup(ctx context.Context, entityType lineage.EntityType, uid lineage.UID) (lineage.RawRecord, error) {
	record, err := r.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if record == nil || record.EntityType != entityType {
		return nil, nil
	}
	return record.RawRecord(), nil
}

var (
	_ lineage.EntityRegistry   = (*GormEntityRepository)(nil)
	_ lineage.EntityRepository = (*GormEntityRepository)(nil)
)
