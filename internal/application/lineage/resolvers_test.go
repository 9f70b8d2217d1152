package lineage

import (
	"testing"

	domain "github.com/erp/lineage/internal/domain/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBuiltinResolvers(t *testing.T) {
	registry := domain.NewResolverRegistry()
	require.NoError(t, RegisterBuiltinResolvers(registry))

	for _, entityType := range domain.AllEntityTypes() {
		assert.True(t, registry.Registered(entityType), "missing resolver for %s", entityType)
	}
}

func TestMapResolver(t *testing.T) {
	registry := domain.NewResolverRegistry()
	require.NoError(t, RegisterBuiltinResolvers(registry))

	tests := []struct {
		name       string
		entityType domain.EntityType
		rawStatus  string
		want       domain.BusinessStatus
	}{
		{"order domain status", domain.EntityTypeOrder, "COMPLETED", domain.StatusSettled},
		{"recharge domain status", domain.EntityTypeRecharge, "REFUNDED", domain.StatusReversed},
		{"canonical passthrough", domain.EntityTypeOrder, "PENDING_APPROVAL", domain.StatusPendingApproval},
		{"unknown raw status falls back to draft", domain.EntityTypeBill, "SOMETHING_ELSE", domain.StatusDraft},
		{"missing raw status falls back to draft", domain.EntityTypeCashFlow, "", domain.StatusDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := domain.RawRecord{"raw_status": tt.rawStatus}
			got, ok := registry.Resolve(tt.entityType, record)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
