package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking payment statuses
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusSucceeded = "SUCCEEDED"
	PaymentStatusFailed    = "FAILED"
)

// Booking is the payment record boundary produced by the booking-creation
// flow. The commission ledger only reads it; the affiliate columns are filled
// in at checkout when an attribution was redeemed.
type Booking struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CustomerID       uint            `gorm:"not null;index" json:"customer_id"`
	StylistID        uint            `gorm:"not null;index" json:"stylist_id"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency         string          `gorm:"size:3;default:NOK" json:"currency"`
	PaymentStatus    string          `gorm:"size:20;default:PENDING;index" json:"payment_status"`
	AffiliateOwnerID *uint           `gorm:"index" json:"affiliate_owner_id,omitempty"`
	AffiliateCodeID  *uint           `json:"affiliate_code_id,omitempty"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"commission_amount"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"commission_rate"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Booking model
func (Booking) TableName() string {
	return "bookings"
}
