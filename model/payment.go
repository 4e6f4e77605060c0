package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentProvider identifies which external gateway a payment went through
type PaymentProvider string

const (
	ProviderPaystack    PaymentProvider = "paystack"
	ProviderFlutterwave PaymentProvider = "flutterwave"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// CanTransition reports whether moving from the current status to the target
// status is an allowed edge. The ledger only ever moves
// pending -> succeeded, pending -> failed, succeeded -> refunded.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return to == PaymentStatusSucceeded || to == PaymentStatusFailed
	case PaymentStatusSucceeded:
		return to == PaymentStatusRefunded
	default:
		return false
	}
}

// IsTerminal reports whether the status accepts no further transitions.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// Payment represents one attempted course purchase. Rows are never deleted;
// the table is the local ledger reconciled against the provider's
// authoritative state.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	CourseID          uint            `gorm:"not null;index" json:"course_id"`
	Amount            float64         `gorm:"not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(10);not null;default:'GHS'" json:"currency"`
	Provider          PaymentProvider `gorm:"type:varchar(30);not null;uniqueIndex:idx_payments_provider_reference" json:"provider"`
	ProviderReference string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_payments_provider_reference" json:"provider_reference"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CouponCode        string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	Metadata          datatypes.JSON  `gorm:"type:jsonb" json:"metadata,omitempty"` // raw provider payloads, append-only audit blob
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
