package lineage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/erp/lineage/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntityRecord is the registered snapshot of a business entity. It is the
// deployment-level source of raw domain data behind the EntityRepository
// contract: the raw status stored here is what status resolvers translate
// into a canonical state.
type EntityRecord struct {
	UID        string          `json:"uid" gorm:"type:varchar(64);primary_key"`
	EntityType EntityType      `json:"entity_type" gorm:"type:varchar(32);not null;index"`
	RawStatus  string          `json:"raw_status" gorm:"type:varchar(64);not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(18,4);not null;default:0"`
	Payload    []byte          `json:"payload,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (EntityRecord) TableName() string {
	return "business_entities"
}

// NewEntityRecord mints a fresh UID for the given entity type and wraps the
// raw snapshot around it.
func NewEntityRecord(entityType EntityType, rawStatus string, amount decimal.Decimal, payload map[string]any) (*EntityRecord, error) {
	uid, err := NewUID(entityType)
	if err != nil {
		return nil, err
	}
	if rawStatus == "" {
		return nil, shared.NewDomainError("INVALID_RAW_STATUS", "raw status cannot be empty")
	}

	var payloadJSON []byte
	if len(payload) > 0 {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PAYLOAD", "payload is not serializable: "+err.Error())
		}
	}

	return &EntityRecord{
		UID:        string(uid),
		EntityType: entityType,
		RawStatus:  rawStatus,
		Amount:     amount,
		Payload:    payloadJSON,
	}, nil
}

// RawRecord flattens the snapshot into the shape status resolvers consume.
// Payload fields come first so the reserved keys always win.
func (r *EntityRecord) RawRecord() RawRecord {
	record := make(RawRecord)
	if len(r.Payload) > 0 {
		// Ignore malformed payloads rather than failing the lookup.
		_ = json.Unmarshal(r.Payload, &record)
	}
	record["uid"] = r.UID
	record["entity_type"] = string(r.EntityType)
	record["raw_status"] = r.RawStatus
	record["amount"] = r.Amount.String()
	return record
}

// EntityRegistry persists registered entity snapshots.
// FindByUID returns (nil, nil) when no entity matches.
type EntityRegistry interface {
	Save(ctx context.Context, record *EntityRecord) error
	FindByUID(ctx context.Context, uid UID) (*EntityRecord, error)
	UpdateRawStatus(ctx context.Context, uid UID, rawStatus string) error
}
