package lineage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/lineage/internal/domain/shared"
	"github.com/google/uuid"
)

// RelationType labels a directed edge between two business records. The
// store treats it as an opaque string; these are the labels the
// surrounding application registers today.
type RelationType string

const (
	RelationTypePayment    RelationType = "PAYMENT"
	RelationTypeSettlement RelationType = "SETTLEMENT"
	RelationTypeReversal   RelationType = "REVERSAL"
	RelationTypeAllocation RelationType = "ALLOCATION"
	RelationTypeRebate     RelationType = "REBATE"
	RelationTypeTransfer   RelationType = "TRANSFER"
	RelationTypeAdjustment RelationType = "ADJUSTMENT"
)

// Relation is a directed, typed edge between two UIDs. Relations are
// created once and never mutated; a correction is expressed as a new
// relation (usually REVERSAL) pointing at the original. The store never
// holds two relations with the same (source, target, type) triple.
type Relation struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	SourceUID    UID          `gorm:"type:varchar(64);not null;uniqueIndex:idx_relation_edge,priority:1;index" json:"source_uid"`
	TargetUID    UID          `gorm:"type:varchar(64);not null;uniqueIndex:idx_relation_edge,priority:2;index" json:"target_uid"`
	RelationType RelationType `gorm:"type:varchar(30);not null;uniqueIndex:idx_relation_edge,priority:3" json:"relation_type"`
	Metadata     []byte       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

// TableName returns the table name for GORM
func (Relation) TableName() string {
	return "entity_relations"
}

// NewRelation creates a relation between two well-formed UIDs
func NewRelation(source, target UID, relationType RelationType, metadata map[string]any) (*Relation, error) {
	if _, err := ParseUID(source); err != nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_UID", fmt.Sprintf("source %q: %s", source, err))
	}
	if _, err := ParseUID(target); err != nil {
		return nil, shared.NewDomainError("INVALID_TARGET_UID", fmt.Sprintf("target %q: %s", target, err))
	}
	if relationType == "" {
		return nil, shared.NewDomainError("INVALID_RELATION_TYPE", "Relation type cannot be empty")
	}

	var payload []byte
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_METADATA", "Relation metadata is not JSON-encodable")
		}
		payload = encoded
	}

	return &Relation{
		ID:           uuid.New(),
		SourceUID:    source,
		TargetUID:    target,
		RelationType: relationType,
		Metadata:     payload,
		CreatedAt:    time.Now(),
	}, nil
}

// Key returns the deduplication triple of the edge
func (r *Relation) Key() string {
	return string(r.SourceUID) + "|" + string(r.TargetUID) + "|" + string(r.RelationType)
}

// Involves reports whether the UID is one of the edge's endpoints
func (r *Relation) Involves(uid UID) bool {
	return r.SourceUID == uid || r.TargetUID == uid
}

// OtherEnd returns the opposite endpoint of the edge relative to uid.
// For a self-loop both endpoints are uid and uid is returned.
func (r *Relation) OtherEnd(uid UID) UID {
	if r.SourceUID == uid {
		return r.TargetUID
	}
	return r.SourceUID
}

// DecodeMetadata unmarshals the opaque metadata bag, returning nil for an
// empty payload
func (r *Relation) DecodeMetadata() (map[string]any, error) {
	if len(r.Metadata) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(r.Metadata, &out); err != nil {
		return nil, fmt.Errorf("failed to decode relation metadata: %w", err)
	}
	return out, nil
}
