package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateCode represents a redeemable affiliate code owned by a stylist.
// Codes are stored uppercase and matched case-insensitively.
type AffiliateCode struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	StylistID      uint            `gorm:"not null;index" json:"stylist_id"`
	Stylist        *User           `gorm:"foreignKey:StylistID" json:"stylist,omitempty"`
	Code           string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

// TableName specifies the table name for AffiliateCode model
func (AffiliateCode) TableName() string {
	return "affiliate_codes"
}
