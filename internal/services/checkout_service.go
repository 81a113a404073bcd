package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutService struct {
	db    *gorm.DB
	codes *CodeService
}

func NewCheckoutService(db *gorm.DB) *CheckoutService {
	return &CheckoutService{
		db:    db,
		codes: NewCodeService(db),
	}
}

// CartItem is one service line in the checkout cart
type CartItem struct {
	ItemID    uint            `json:"item_id" binding:"required"`
	OwnerID   uint            `json:"owner_id" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Qty       int             `json:"qty" binding:"required"`
}

// DiscountResult describes the affiliate discount applicable to a cart.
// Applicable is false when no cart item belongs to the attributed stylist;
// that is a normal outcome, not an error.
type DiscountResult struct {
	Applicable       bool            `json:"applicable"`
	Code             string          `json:"code,omitempty"`
	OwnerID          uint            `json:"owner_id,omitempty"`
	OwnerName        string          `json:"owner_name,omitempty"`
	EligibleItemIDs  []uint          `json:"eligible_item_ids,omitempty"`
	EligibleSubtotal decimal.Decimal `json:"eligible_subtotal"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
}

// CanRedeem enforces the usage rights on an attribution: the original
// recipient (when recorded) must be the redeeming user, and the code owner
// can never redeem their own code. Returns nil when redemption is allowed.
func (s *CheckoutService) CanRedeem(userID uint, att *ResolvedAttribution) error {
	if att.OriginalUserID != nil && *att.OriginalUserID != userID {
		return ErrNotOriginalRecipient
	}

	validation, err := s.codes.ValidateCode(att.Code)
	if err != nil {
		return err
	}

	if validation.OwnerID == userID {
		return ErrSelfReferral
	}

	return nil
}

// ComputeDiscount determines the discount an attribution grants on a cart.
// Only items sold by the attributed stylist are eligible. The commission rate
// is always re-read from the live code record; a rate changed after the
// attribution was stored must not be honored from the stale copy.
func (s *CheckoutService) ComputeDiscount(items []CartItem, att *ResolvedAttribution) (*DiscountResult, error) {
	validation, err := s.codes.ValidateCode(att.Code)
	if err != nil {
		return nil, err
	}

	var eligibleIDs []uint
	subtotal := decimal.Zero
	for _, item := range items {
		if item.OwnerID != validation.OwnerID {
			continue
		}
		eligibleIDs = append(eligibleIDs, item.ItemID)
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}

	if len(eligibleIDs) == 0 {
		return &DiscountResult{
			Applicable:       false,
			EligibleSubtotal: decimal.Zero,
			DiscountAmount:   decimal.Zero,
			CommissionRate:   validation.CommissionRate,
		}, nil
	}

	discount := subtotal.Mul(validation.CommissionRate).
		Div(decimal.NewFromInt(100)).
		Round(2)

	// Rounding must never push the discount past what the eligible items cost
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return &DiscountResult{
		Applicable:       true,
		Code:             validation.Code,
		OwnerID:          validation.OwnerID,
		OwnerName:        validation.OwnerName,
		EligibleItemIDs:  eligibleIDs,
		EligibleSubtotal: subtotal,
		DiscountAmount:   discount,
		CommissionRate:   validation.CommissionRate,
	}, nil
}
