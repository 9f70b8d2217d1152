package lineage

import (
	"testing"

	"github.com/erp/lineage/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintTestUID(t *testing.T, entityType EntityType) UID {
	t.Helper()
	uid, err := NewUID(entityType)
	require.NoError(t, err)
	return uid
}

func TestNewRelation(t *testing.T) {
	source := mintTestUID(t, EntityTypeCashFlow)
	target := mintTestUID(t, EntityTypeOrder)

	relation, err := NewRelation(source, target, RelationTypePayment, map[string]any{"amount": "120.50"})
	require.NoError(t, err)

	assert.Equal(t, source, relation.SourceUID)
	assert.Equal(t, target, relation.TargetUID)
	assert.Equal(t, RelationTypePayment, relation.RelationType)
	assert.False(t, relation.CreatedAt.IsZero())
	assert.NotEqual(t, relation.ID.String(), "00000000-0000-0000-0000-000000000000")

	metadata, err := relation.DecodeMetadata()
	require.NoError(t, err)
	assert.Equal(t, "120.50", metadata["amount"])
}

func TestNewRelation_Validation(t *testing.T) {
	valid := mintTestUID(t, EntityTypeBill)

	tests := []struct {
		name         string
		source       UID
		target       UID
		relationType RelationType
		wantCode     string
	}{
		{"malformed source", "not-a-uid", valid, RelationTypePayment, "INVALID_SOURCE_UID"},
		{"malformed target", valid, "ORDER-xyz-ABC", RelationTypePayment, "INVALID_TARGET_UID"},
		{"empty relation type", valid, mintTestUID(t, EntityTypeOrder), "", "INVALID_RELATION_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRelation(tt.source, tt.target, tt.relationType, nil)
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestRelation_Key(t *testing.T) {
	a, err := NewRelation("CASH_FLOW-1-AAA", "ORDER-2-BBB", RelationTypePayment, nil)
	require.NoError(t, err)
	b, err := NewRelation("CASH_FLOW-1-AAA", "ORDER-2-BBB", RelationTypePayment, map[string]any{"note": "retry"})
	require.NoError(t, err)
	c, err := NewRelation("CASH_FLOW-1-AAA", "ORDER-2-BBB", RelationTypeReversal, nil)
	require.NoError(t, err)

	// Metadata does not participate in the dedupe triple
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestRelation_Endpoints(t *testing.T) {
	relation, err := NewRelation("CASH_FLOW-1-AAA", "ORDER-2-BBB", RelationTypePayment, nil)
	require.NoError(t, err)

	assert.True(t, relation.Involves("CASH_FLOW-1-AAA"))
	assert.True(t, relation.Involves("ORDER-2-BBB"))
	assert.False(t, relation.Involves("BILL-3-CCC"))

	assert.Equal(t, UID("ORDER-2-BBB"), relation.OtherEnd("CASH_FLOW-1-AAA"))
	assert.Equal(t, UID("CASH_FLOW-1-AAA"), relation.OtherEnd("ORDER-2-BBB"))
}

func TestRelation_DecodeMetadata_Empty(t *testing.T) {
	relation, err := NewRelation("CASH_FLOW-1-AAA", "ORDER-2-BBB", RelationTypePayment, nil)
	require.NoError(t, err)
	assert.Nil(t, relation.Metadata)

	metadata, err := relation.DecodeMetadata()
	require.NoError(t, err)
	assert.Nil(t, metadata)
}
