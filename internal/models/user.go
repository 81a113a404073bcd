package models

import (
	"time"
)

// User roles
const (
	RoleCustomer = "customer"
	RoleStylist  = "stylist"
	RoleAdmin    = "admin"
)

// User represents a marketplace user (customer or stylist)
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	Name            string    `gorm:"not null" json:"name"`
	Role            string    `gorm:"size:20;not null;default:customer;index" json:"role"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	PayoutAccountID *string   `json:"payout_account_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsStylist reports whether the user is an active stylist
func (u *User) IsStylist() bool {
	return u.Role == RoleStylist && u.IsActive
}
