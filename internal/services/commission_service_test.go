package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stylist-marketplace/internal/models"
)

func createPaidBooking(t *testing.T, db *gorm.DB, customerID, stylistID uint, code *models.AffiliateCode) *models.Booking {
	booking := models.Booking{
		CustomerID:       customerID,
		StylistID:        stylistID,
		TotalAmount:      decimal.NewFromInt(1000),
		Currency:         "NOK",
		PaymentStatus:    models.PaymentStatusSucceeded,
		CommissionAmount: decimal.NewFromInt(200),
		CommissionRate:   decimal.NewFromInt(20),
	}
	if code != nil {
		booking.AffiliateOwnerID = &code.StylistID
		booking.AffiliateCodeID = &code.ID
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return &booking
}

func TestRecordCommissionNoAffiliate(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	customer := createCustomer(t, db, 2, "Kari")
	booking := createPaidBooking(t, db, customer.ID, stylist.ID, nil)

	record, err := service.RecordCommission(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("RecordCommission failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected no commission for booking without affiliate, got %+v", record)
	}
}

func TestRecordCommissionCreatesAndConverts(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	customer := createCustomer(t, db, 2, "Kari")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	attribution := models.Attribution{
		AffiliateCodeID: code.ID,
		UserID:          customer.ID,
		OwnerID:         stylist.ID,
		CreatedAt:       time.Now(),
		ExpiresAt:       time.Now().Add(30 * 24 * time.Hour),
	}
	if err := db.Create(&attribution).Error; err != nil {
		t.Fatalf("failed to create attribution: %v", err)
	}

	booking := createPaidBooking(t, db, customer.ID, stylist.ID, code)

	record, err := service.RecordCommission(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("RecordCommission failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected commission record")
	}

	if record.OwnerID != stylist.ID {
		t.Errorf("expected owner %d, got %d", stylist.ID, record.OwnerID)
	}
	if !record.Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected amount 200, got %s", record.Amount)
	}
	if record.Status != models.CommissionStatusPending {
		t.Errorf("expected status PENDING, got %s", record.Status)
	}
	if record.AttributionID == nil || *record.AttributionID != attribution.ID {
		t.Errorf("expected attribution %d linked, got %v", attribution.ID, record.AttributionID)
	}

	// The originating attribution is now converted and linked to the booking
	var converted models.Attribution
	if err := db.First(&converted, attribution.ID).Error; err != nil {
		t.Fatalf("failed to reload attribution: %v", err)
	}
	if !converted.Converted {
		t.Error("expected attribution marked converted")
	}
	if converted.BookingID == nil || *converted.BookingID != booking.ID {
		t.Errorf("expected attribution linked to booking %d, got %v", booking.ID, converted.BookingID)
	}
}

func TestRecordCommissionIdempotent(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	customer := createCustomer(t, db, 2, "Kari")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)
	booking := createPaidBooking(t, db, customer.ID, stylist.ID, code)

	first, err := service.RecordCommission(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("first RecordCommission failed: %v", err)
	}
	if first == nil {
		t.Fatal("expected commission record")
	}

	// Duplicate webhook delivery: the loser observes the winner's row
	second, err := service.RecordCommission(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("second RecordCommission failed: %v", err)
	}
	if second == nil {
		t.Fatal("expected existing commission record on duplicate")
	}
	if first.ID != second.ID {
		t.Errorf("expected same record, got %d and %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.CommissionRecord{}).Where("booking_id = ?", booking.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one commission record, got %d", count)
	}
}

func TestRecordCommissionSkipsUnpaidBooking(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	customer := createCustomer(t, db, 2, "Kari")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	booking := createPaidBooking(t, db, customer.ID, stylist.ID, code)
	db.Model(booking).Update("payment_status", models.PaymentStatusPending)

	record, err := service.RecordCommission(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("RecordCommission failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected no commission for unpaid booking, got %+v", record)
	}
}

func TestRecalculateAffiliateStats(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommissionService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	customer := createCustomer(t, db, 2, "Kari")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	booking := createPaidBooking(t, db, customer.ID, stylist.ID, code)

	attribution := models.Attribution{
		AffiliateCodeID: code.ID,
		UserID:          customer.ID,
		OwnerID:         stylist.ID,
		CreatedAt:       time.Now(),
		ExpiresAt:       time.Now().Add(30 * 24 * time.Hour),
	}
	if err := db.Create(&attribution).Error; err != nil {
		t.Fatalf("failed to create attribution: %v", err)
	}

	if _, err := service.RecordCommission(context.Background(), booking.ID); err != nil {
		t.Fatalf("RecordCommission failed: %v", err)
	}

	stats, err := service.GetAffiliateStats(stylist.ID)
	if err != nil {
		t.Fatalf("GetAffiliateStats failed: %v", err)
	}

	if stats.TotalAttributions != 1 {
		t.Errorf("expected 1 attribution, got %d", stats.TotalAttributions)
	}
	if stats.ConvertedAttributions != 1 {
		t.Errorf("expected 1 converted attribution, got %d", stats.ConvertedAttributions)
	}
	if !stats.TotalCommissionEarned.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected 200 earned, got %s", stats.TotalCommissionEarned)
	}
	if !stats.TotalCommissionPaid.IsZero() {
		t.Errorf("expected nothing paid yet, got %s", stats.TotalCommissionPaid)
	}
}
