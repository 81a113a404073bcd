package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateStats holds aggregated affiliate earnings for a stylist
type AffiliateStats struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	OwnerID               uint            `gorm:"uniqueIndex;not null" json:"owner_id"`
	Owner                 *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	TotalAttributions     int             `gorm:"default:0" json:"total_attributions"`
	ConvertedAttributions int             `gorm:"default:0" json:"converted_attributions"`
	TotalCommissionEarned decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_commission_earned"`
	TotalCommissionPaid   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_commission_paid"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TableName specifies the table name for AffiliateStats model
func (AffiliateStats) TableName() string {
	return "affiliate_stats"
}
