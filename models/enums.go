package models

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type PaymentMode string

const (
	PaymentModeCash PaymentMode = "cash"
	PaymentModeUpi  PaymentMode = "upi"
	PaymentModeCard PaymentMode = "card"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUpi, PaymentModeCard:
		return true
	}
	return false
}

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusReturned  SaleStatus = "returned"
	SaleStatusCancelled SaleStatus = "cancelled"
)

type MovementType string

const (
	MovementTypeStockIn    MovementType = "stock_in"
	MovementTypeStockOut   MovementType = "stock_out"
	MovementTypeAdjustment MovementType = "adjustment"
)

func (m MovementType) Valid() bool {
	switch m {
	case MovementTypeStockIn, MovementTypeStockOut, MovementTypeAdjustment:
		return true
	}
	return false
}

type UserRole string

const (
	UserRoleOwner UserRole = "owner"
	UserRoleStaff UserRole = "staff"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)
