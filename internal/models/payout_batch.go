package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payout batch statuses
const (
	PayoutStatusPending    = "PENDING"
	PayoutStatusProcessing = "PROCESSING"
	PayoutStatusPaid       = "PAID"
	PayoutStatusFailed     = "FAILED"
)

// PayoutBatch groups commission records for one stylist over a period and is
// submitted to the payment provider as a single transfer. BatchRef doubles as
// the provider-side idempotency key.
type PayoutBatch struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	BatchRef           uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"batch_ref"`
	OwnerID            uint            `gorm:"not null;index" json:"owner_id"`
	Owner              *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	PeriodStart        time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd          time.Time       `gorm:"not null" json:"period_end"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	RecordCount        int             `gorm:"not null" json:"record_count"`
	Status             string          `gorm:"size:20;default:PENDING;index" json:"status"`
	ProviderTransferID *string         `json:"provider_transfer_id,omitempty"`
	FailureReason      string          `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
}

// TableName specifies the table name for PayoutBatch model
func (PayoutBatch) TableName() string {
	return "payout_batches"
}
