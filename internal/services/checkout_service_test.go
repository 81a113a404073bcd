package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stylist-marketplace/internal/models"
)

func resolvedAttributionFor(code *models.AffiliateCode, stylist *models.User) *ResolvedAttribution {
	return &ResolvedAttribution{
		Source:         SourceRecord,
		Code:           code.Code,
		CodeID:         code.ID,
		OwnerID:        stylist.ID,
		OwnerName:      stylist.Name,
		CommissionRate: code.CommissionRate,
		AttributedAt:   time.Now(),
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestCanRedeemSelfReferralBlocked(t *testing.T) {
	db := setupTestDB(t)
	service := NewCheckoutService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	err := service.CanRedeem(stylist.ID, resolvedAttributionFor(code, stylist))
	if !errors.Is(err, ErrSelfReferral) {
		t.Errorf("expected ErrSelfReferral, got %v", err)
	}

	customer := createCustomer(t, db, 2, "Kari")
	if err := service.CanRedeem(customer.ID, resolvedAttributionFor(code, stylist)); err != nil {
		t.Errorf("expected customer redemption allowed, got %v", err)
	}
}

func TestCanRedeemOriginalRecipientOnly(t *testing.T) {
	db := setupTestDB(t)
	service := NewCheckoutService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)
	recipient := createCustomer(t, db, 2, "Kari")
	other := createCustomer(t, db, 3, "Ola")

	att := resolvedAttributionFor(code, stylist)
	att.OriginalUserID = &recipient.ID

	if err := service.CanRedeem(recipient.ID, att); err != nil {
		t.Errorf("expected original recipient allowed, got %v", err)
	}
	if err := service.CanRedeem(other.ID, att); !errors.Is(err, ErrNotOriginalRecipient) {
		t.Errorf("expected ErrNotOriginalRecipient, got %v", err)
	}
}

func TestComputeDiscountScenario(t *testing.T) {
	db := setupTestDB(t)
	service := NewCheckoutService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	other := createStylist(t, db, 2, "Ola")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	items := []CartItem{
		{ItemID: 1, OwnerID: stylist.ID, UnitPrice: decimal.NewFromInt(1000), Qty: 1},
		{ItemID: 2, OwnerID: other.ID, UnitPrice: decimal.NewFromInt(500), Qty: 1},
	}

	result, err := service.ComputeDiscount(items, resolvedAttributionFor(code, stylist))
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}

	if !result.Applicable {
		t.Fatal("expected applicable discount")
	}
	if !result.EligibleSubtotal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected eligible subtotal 1000, got %s", result.EligibleSubtotal)
	}
	if !result.DiscountAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected discount 200, got %s", result.DiscountAmount)
	}
	if len(result.EligibleItemIDs) != 1 || result.EligibleItemIDs[0] != 1 {
		t.Errorf("expected only item 1 eligible, got %v", result.EligibleItemIDs)
	}
}

func TestComputeDiscountNoEligibleItems(t *testing.T) {
	db := setupTestDB(t)
	service := NewCheckoutService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	other := createStylist(t, db, 2, "Ola")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	items := []CartItem{
		{ItemID: 7, OwnerID: other.ID, UnitPrice: decimal.NewFromInt(500), Qty: 2},
	}

	result, err := service.ComputeDiscount(items, resolvedAttributionFor(code, stylist))
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}

	// Not an error: the cart just proceeds at full price
	if result.Applicable {
		t.Error("expected no applicable discount")
	}
	if !result.DiscountAmount.IsZero() {
		t.Errorf("expected zero discount, got %s", result.DiscountAmount)
	}
}

func TestComputeDiscountNeverExceedsSubtotal(t *testing.T) {
	db := setupTestDB(t)
	service := NewCheckoutService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	code := createCode(t, db, stylist.ID, "ALT100", 100)

	items := []CartItem{
		{ItemID: 1, OwnerID: stylist.ID, UnitPrice: decimal.RequireFromString("333.33"), Qty: 3},
	}

	result, err := service.ComputeDiscount(items, resolvedAttributionFor(code, stylist))
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}

	if result.DiscountAmount.GreaterThan(result.EligibleSubtotal) {
		t.Errorf("discount %s exceeds subtotal %s", result.DiscountAmount, result.EligibleSubtotal)
	}
	if !result.DiscountAmount.Equal(result.EligibleSubtotal) {
		t.Errorf("expected 100%% rate to discount the full subtotal, got %s of %s",
			result.DiscountAmount, result.EligibleSubtotal)
	}
}

func TestComputeDiscountUsesLiveRate(t *testing.T) {
	db := setupTestDB(t)
	service := NewCheckoutService(db)

	stylist := createStylist(t, db, 1, "Sonja")
	code := createCode(t, db, stylist.ID, "SOMMER20", 20)

	att := resolvedAttributionFor(code, stylist)
	// Rate stored in the attribution is stale: the live code has moved to 10%
	db.Model(code).Update("commission_rate", decimal.NewFromInt(10))

	items := []CartItem{
		{ItemID: 1, OwnerID: stylist.ID, UnitPrice: decimal.NewFromInt(1000), Qty: 1},
	}

	result, err := service.ComputeDiscount(items, att)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}

	if !result.DiscountAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected live 10%% rate to yield 100, got %s", result.DiscountAmount)
	}
}
