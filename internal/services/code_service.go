package services

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stylist-marketplace/internal/models"
)

// DefaultCommissionRate is applied to newly issued codes
var DefaultCommissionRate = decimal.NewFromInt(20)

type CodeService struct {
	db *gorm.DB
}

func NewCodeService(db *gorm.DB) *CodeService {
	return &CodeService{db: db}
}

// CodeValidation is the result of a successful code lookup
type CodeValidation struct {
	Code           string          `json:"code"`
	CodeID         uint            `json:"code_id"`
	OwnerID        uint            `json:"owner_id"`
	OwnerName      string          `json:"owner_name"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// ValidateCode checks a human-entered code and resolves its owner and rate.
// Codes are matched case-insensitively; the stored form is uppercase.
// Pure read, no side effects.
func (s *CodeService) ValidateCode(code string) (*CodeValidation, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrEmptyCode
	}

	var affiliateCode models.AffiliateCode
	if err := s.db.Where("code = ?", normalized).First(&affiliateCode).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	// Owner check comes before the active/expiry checks so a deactivated
	// stylist stops earning even on an otherwise live code.
	var owner models.User
	if err := s.db.Where("id = ?", affiliateCode.StylistID).First(&owner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCodeOwnerInvalid
		}
		return nil, err
	}
	if !owner.IsStylist() {
		return nil, ErrCodeOwnerInvalid
	}

	if !affiliateCode.IsActive {
		return nil, ErrCodeInactive
	}

	if affiliateCode.ExpiresAt != nil && affiliateCode.ExpiresAt.Before(time.Now()) {
		return nil, ErrCodeExpired
	}

	return &CodeValidation{
		Code:           affiliateCode.Code,
		CodeID:         affiliateCode.ID,
		OwnerID:        owner.ID,
		OwnerName:      owner.Name,
		CommissionRate: affiliateCode.CommissionRate,
	}, nil
}

// GetStylistCode gets or creates an active affiliate code for a stylist
func (s *CodeService) GetStylistCode(stylistID uint) (*models.AffiliateCode, error) {
	var code models.AffiliateCode
	result := s.db.Where("stylist_id = ? AND is_active = ?", stylistID, true).First(&code)

	if result.Error == gorm.ErrRecordNotFound {
		return s.GenerateAffiliateCode(stylistID)
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &code, nil
}

// GenerateAffiliateCode creates a unique affiliate code for a stylist
func (s *CodeService) GenerateAffiliateCode(stylistID uint) (*models.AffiliateCode, error) {
	var stylist models.User
	if err := s.db.Where("id = ?", stylistID).First(&stylist).Error; err != nil {
		return nil, err
	}
	if !stylist.IsStylist() {
		return nil, ErrCodeOwnerInvalid
	}

	code, err := generateRandomCode()
	if err != nil {
		return nil, err
	}

	affiliateCode := models.AffiliateCode{
		StylistID:      stylistID,
		Code:           code,
		CommissionRate: DefaultCommissionRate,
		IsActive:       true,
	}

	if err := s.db.Create(&affiliateCode).Error; err != nil {
		return nil, fmt.Errorf("failed to create affiliate code: %w", err)
	}

	log.Printf("Generated affiliate code %s for stylist %d", code, stylistID)
	return &affiliateCode, nil
}

// generateRandomCode generates a random 8-character uppercase code
func generateRandomCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)[:8], nil
}
