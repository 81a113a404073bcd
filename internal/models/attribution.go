package models

import (
	"time"
)

// Attribution is a durable claim that a user was referred by an affiliate code.
// At most one unconverted row may exist per (user, code) pair; the partial
// unique index below enforces it.
type Attribution struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	AffiliateCodeID uint           `gorm:"not null;index;uniqueIndex:idx_attr_unconverted,where:converted = false" json:"affiliate_code_id"`
	AffiliateCode   *AffiliateCode `gorm:"foreignKey:AffiliateCodeID" json:"affiliate_code,omitempty"`
	UserID          uint           `gorm:"not null;index;uniqueIndex:idx_attr_unconverted,where:converted = false" json:"user_id"`
	User            *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OwnerID         uint           `gorm:"not null;index" json:"owner_id"`
	OriginalUserID  *uint          `json:"original_user_id,omitempty"`
	VisitorSession  *string        `gorm:"size:128" json:"visitor_session,omitempty"`
	Converted       bool           `gorm:"default:false;index" json:"converted"`
	BookingID       *uint          `gorm:"index" json:"booking_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ExpiresAt       time.Time      `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for Attribution model
func (Attribution) TableName() string {
	return "attributions"
}

// Expired reports whether the attribution window has elapsed at the given time
func (a *Attribution) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
