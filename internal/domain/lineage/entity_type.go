package lineage

// EntityType identifies the business record family a UID belongs to.
// The set is closed: adding a new type means adding a tag here plus a
// status resolver for it.
type EntityType string

const (
	EntityTypeOrder          EntityType = "ORDER"
	EntityTypeRecharge       EntityType = "RECHARGE"
	EntityTypeConsumption    EntityType = "CONSUMPTION"
	EntityTypeBill           EntityType = "BILL"
	EntityTypePaymentRequest EntityType = "PAYMENT_REQUEST"
	EntityTypeCashFlow       EntityType = "CASH_FLOW"
	EntityTypeSettlement     EntityType = "SETTLEMENT"
	EntityTypeRebate         EntityType = "REBATE"
	EntityTypeTransfer       EntityType = "TRANSFER"
	EntityTypeAdjustment     EntityType = "ADJUSTMENT"
)

// IsValid checks if the type is a valid EntityType
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeOrder, EntityTypeRecharge, EntityTypeConsumption,
		EntityTypeBill, EntityTypePaymentRequest, EntityTypeCashFlow,
		EntityTypeSettlement, EntityTypeRebate, EntityTypeTransfer,
		EntityTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of EntityType
func (t EntityType) String() string {
	return string(t)
}

// AllEntityTypes returns every member of the closed EntityType set
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTypeOrder,
		EntityTypeRecharge,
		EntityTypeConsumption,
		EntityTypeBill,
		EntityTypePaymentRequest,
		EntityTypeCashFlow,
		EntityTypeSettlement,
		EntityTypeRebate,
		EntityTypeTransfer,
		EntityTypeAdjustment,
	}
}
