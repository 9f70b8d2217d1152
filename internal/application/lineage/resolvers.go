package lineage

import (
	domain "github.com/erp/lineage/internal/domain/lineage"
)

// mapResolver builds a StatusResolver from a raw-status translation table.
// Raw statuses that already name a canonical status pass through; anything
// unrecognized resolves to DRAFT so unknown records never unlock actions.
func mapResolver(table map[string]domain.BusinessStatus) domain.StatusResolver {
	return func(record domain.RawRecord) domain.BusinessStatus {
		raw, _ := record["raw_status"].(string)
		if status, ok := table[raw]; ok {
			return status
		}
		if status := domain.BusinessStatus(raw); status.IsValid() {
			return status
		}
		return domain.StatusDraft
	}
}

// builtinResolvers maps each entity type's raw status vocabulary onto the
// canonical status set.
var builtinResolvers = map[domain.EntityType]map[string]domain.BusinessStatus{
	domain.EntityTypeOrder: {
		"PENDING_REVIEW": domain.StatusPendingApproval,
		"CONFIRMED":      domain.StatusApproved,
		"COMPLETED":      domain.StatusSettled,
	},
	domain.EntityTypeRecharge: {
		"CREATED":         domain.StatusDraft,
		"PAYING":          domain.StatusSubmitted,
		"PENDING_CONFIRM": domain.StatusPendingApproval,
		"PAID":            domain.StatusApproved,
		"POSTED":          domain.StatusSettled,
		"REFUNDED":        domain.StatusReversed,
		"FAILED":          domain.StatusRejected,
	},
	domain.EntityTypeConsumption: {
		"PENDING":     domain.StatusSubmitted,
		"POSTED":      domain.StatusSettled,
		"WRITTEN_OFF": domain.StatusReversed,
	},
	domain.EntityTypeBill: {
		"ISSUED":       domain.StatusSubmitted,
		"UNDER_REVIEW": domain.StatusPendingApproval,
		"PAID":         domain.StatusSettled,
		"DISPUTED":     domain.StatusRejected,
		"VOID":         domain.StatusCancelled,
	},
	domain.EntityTypePaymentRequest: {
		"IN_APPROVAL": domain.StatusPendingApproval,
		"PAID":        domain.StatusSettled,
		"DECLINED":    domain.StatusRejected,
		"WITHDRAWN":   domain.StatusCancelled,
	},
	domain.EntityTypeCashFlow: {
		"PENDING": domain.StatusSubmitted,
		"POSTED":  domain.StatusSettled,
	},
	domain.EntityTypeSettlement: {
		"OPEN":         domain.StatusDraft,
		"IN_PROGRESS":  domain.StatusSubmitted,
		"UNDER_REVIEW": domain.StatusPendingApproval,
		"CONFIRMED":    domain.StatusApproved,
		"CLOSED":       domain.StatusSettled,
	},
	domain.EntityTypeRebate: {
		"ACCRUED":     domain.StatusSubmitted,
		"GRANTED":     domain.StatusSettled,
		"CLAWED_BACK": domain.StatusReversed,
		"VOID":        domain.StatusCancelled,
	},
	domain.EntityTypeTransfer: {
		"INITIATED":  domain.StatusSubmitted,
		"IN_TRANSIT": domain.StatusApproved,
		"COMPLETED":  domain.StatusSettled,
		"RETURNED":   domain.StatusReversed,
	},
	domain.EntityTypeAdjustment: {
		"PROPOSED":     domain.StatusDraft,
		"UNDER_REVIEW": domain.StatusPendingApproval,
		"APPLIED":      domain.StatusSettled,
		"ROLLED_BACK":  domain.StatusReversed,
	},
}

// RegisterBuiltinResolvers installs a resolver for every entity type.
// Called once at startup before the trace engine sees traffic.
func RegisterBuiltinResolvers(registry *domain.ResolverRegistry) error {
	for entityType, table := range builtinResolvers {
		if err := registry.Register(entityType, mapResolver(table)); err != nil {
			return err
		}
	}
	return nil
}
