package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stylist-marketplace/internal/auth"
	"stylist-marketplace/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// :memory: with cache=shared persists across connections within the test
	// binary, so every test starts by clearing the tables it touches.
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Booking{},
		&models.AffiliateCode{},
		&models.Attribution{},
		&models.CommissionRecord{},
		&models.PayoutBatch{},
		&models.AffiliateStats{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// Clean all tables
	for _, table := range []string{
		"affiliate_stats", "payout_batches", "commission_records",
		"attributions", "affiliate_codes", "bookings", "users",
	} {
		db.Exec("DELETE FROM " + table)
	}

	auth.InitJWT("test-secret")

	return db
}

func createStylist(t *testing.T, db *gorm.DB, id uint, name string) *models.User {
	user := models.User{
		ID:       id,
		Email:    name + "@example.no",
		Name:     name,
		Role:     models.RoleStylist,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create stylist: %v", err)
	}
	return &user
}

func createCustomer(t *testing.T, db *gorm.DB, id uint, name string) *models.User {
	user := models.User{
		ID:       id,
		Email:    name + "@example.no",
		Name:     name,
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	return &user
}

func createCode(t *testing.T, db *gorm.DB, stylistID uint, code string, rate int64) *models.AffiliateCode {
	affiliateCode := models.AffiliateCode{
		StylistID:      stylistID,
		Code:           code,
		CommissionRate: decimal.NewFromInt(rate),
		IsActive:       true,
	}
	if err := db.Create(&affiliateCode).Error; err != nil {
		t.Fatalf("failed to create affiliate code: %v", err)
	}
	return &affiliateCode
}

func TestValidateCodeRejections(t *testing.T) {
	db := setupTestDB(t)
	service := NewCodeService(db)

	if _, err := service.ValidateCode("   "); !errors.Is(err, ErrEmptyCode) {
		t.Errorf("expected ErrEmptyCode, got %v", err)
	}

	if _, err := service.ValidateCode("NOSUCHCODE"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("expected ErrCodeNotFound, got %v", err)
	}

	stylist := createStylist(t, db, 1, "Sonja")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	// Inactive code
	db.Model(code).Update("is_active", false)
	if _, err := service.ValidateCode("SOMMER20"); !errors.Is(err, ErrCodeInactive) {
		t.Errorf("expected ErrCodeInactive, got %v", err)
	}
	db.Model(code).Update("is_active", true)

	// Expired code
	yesterday := time.Now().Add(-24 * time.Hour)
	db.Model(code).Update("expires_at", yesterday)
	if _, err := service.ValidateCode("SOMMER20"); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("expected ErrCodeExpired, got %v", err)
	}
	db.Model(code).Update("expires_at", nil)

	// Deactivated owner stops earning even on a live code
	db.Model(stylist).Update("is_active", false)
	if _, err := service.ValidateCode("SOMMER20"); !errors.Is(err, ErrCodeOwnerInvalid) {
		t.Errorf("expected ErrCodeOwnerInvalid for deactivated owner, got %v", err)
	}

	// Wrong role disqualifies too
	db.Model(stylist).Updates(map[string]interface{}{"is_active": true, "role": models.RoleCustomer})
	if _, err := service.ValidateCode("SOMMER20"); !errors.Is(err, ErrCodeOwnerInvalid) {
		t.Errorf("expected ErrCodeOwnerInvalid for wrong role, got %v", err)
	}
}

func TestValidateCodeNormalizesInput(t *testing.T) {
	db := setupTestDB(t)
	service := NewCodeService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	createCode(t, db, stylist.ID, "SOMMER20", 20)

	validation, err := service.ValidateCode("  sommer20 ")
	if err != nil {
		t.Fatalf("ValidateCode failed: %v", err)
	}

	if validation.Code != "SOMMER20" {
		t.Errorf("expected normalized code SOMMER20, got %s", validation.Code)
	}
	if validation.OwnerID != stylist.ID {
		t.Errorf("expected owner %d, got %d", stylist.ID, validation.OwnerID)
	}
	if validation.OwnerName != "Sonja" {
		t.Errorf("expected owner name Sonja, got %s", validation.OwnerName)
	}
	if !validation.CommissionRate.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected rate 20, got %s", validation.CommissionRate)
	}
}

func TestGetStylistCodeCreatesOnce(t *testing.T) {
	db := setupTestDB(t)
	service := NewCodeService(db)

	stylist := createStylist(t, db, 1, "Sonja")

	first, err := service.GetStylistCode(stylist.ID)
	if err != nil {
		t.Fatalf("GetStylistCode failed: %v", err)
	}
	if len(first.Code) != 8 {
		t.Errorf("expected 8-character code, got %q", first.Code)
	}

	second, err := service.GetStylistCode(stylist.ID)
	if err != nil {
		t.Fatalf("GetStylistCode failed on second call: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same code record, got %d and %d", first.ID, second.ID)
	}

	// Customers cannot own codes
	customer := createCustomer(t, db, 2, "Kari")
	if _, err := service.GenerateAffiliateCode(customer.ID); !errors.Is(err, ErrCodeOwnerInvalid) {
		t.Errorf("expected ErrCodeOwnerInvalid for customer, got %v", err)
	}
}
