package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission record statuses
const (
	CommissionStatusPending    = "PENDING"
	CommissionStatusProcessing = "PROCESSING"
	CommissionStatusPaid       = "PAID"
	CommissionStatusFailed     = "FAILED"
)

// CommissionRecord is a ledger line for commission earned on one booking.
// The unique index on BookingID guarantees exactly one record per booking;
// concurrent writers collapse onto the winner via insert-or-refetch.
type CommissionRecord struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	BookingID      uint            `gorm:"uniqueIndex;not null" json:"booking_id"`
	Booking        *Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	OwnerID        uint            `gorm:"not null;index" json:"owner_id"`
	Owner          *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	AttributionID  *uint           `gorm:"index" json:"attribution_id,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	Status         string          `gorm:"size:20;default:PENDING;index" json:"status"`
	PayoutBatchID  *uint           `gorm:"index" json:"payout_batch_id,omitempty"`
	BatchedAt      *time.Time      `gorm:"index" json:"batched_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

// TableName specifies the table name for CommissionRecord model
func (CommissionRecord) TableName() string {
	return "commission_records"
}
