package services

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stylist-marketplace/internal/auth"
	"stylist-marketplace/internal/models"
)

// Attribution sources, in lookup order
const (
	SourceRecord = "record"
	SourceToken  = "token"
)

type AttributionService struct {
	db         *gorm.DB
	codes      *CodeService
	windowDays int
}

func NewAttributionService(db *gorm.DB, windowDays int) *AttributionService {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &AttributionService{
		db:         db,
		codes:      NewCodeService(db),
		windowDays: windowDays,
	}
}

// ResolvedAttribution is a normalized view over the two attribution sources
// (durable record and browser token).
type ResolvedAttribution struct {
	Source         string          `json:"source"`
	RecordID       *uint           `json:"record_id,omitempty"`
	Code           string          `json:"code"`
	CodeID         uint            `json:"code_id"`
	OwnerID        uint            `json:"owner_id"`
	OwnerName      string          `json:"owner_name"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	AttributedAt   time.Time       `json:"attributed_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	OriginalUserID *uint           `json:"original_user_id,omitempty"`
	VisitorSession *string         `json:"visitor_session,omitempty"`
}

// lookupFunc is one source in the attribution chain. A nil attribution means
// fall through to the next source; clearToken asks the caller to drop the
// browser cookie.
type lookupFunc func(userID *uint, rawToken string) (att *ResolvedAttribution, clearToken bool)

// GetAttribution resolves the current attribution for a subject: the most
// recent unconverted durable record first, then the browser token. Stale
// sources are cleaned up on read; cleanup never fails the lookup.
func (s *AttributionService) GetAttribution(userID *uint, rawToken string) (*ResolvedAttribution, bool) {
	sources := []lookupFunc{s.lookupRecord, s.lookupToken}

	clearToken := false
	for _, lookup := range sources {
		att, clear := lookup(userID, rawToken)
		clearToken = clearToken || clear
		if att != nil {
			return att, clearToken
		}
	}

	return nil, clearToken
}

// lookupRecord resolves the durable attribution record for a logged-in user
func (s *AttributionService) lookupRecord(userID *uint, _ string) (*ResolvedAttribution, bool) {
	if userID == nil {
		return nil, false
	}

	var record models.Attribution
	err := s.db.Where("user_id = ? AND converted = ?", *userID, false).
		Order("created_at DESC").
		Preload("AffiliateCode").
		First(&record).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Attribution record lookup failed for user %d: %v", *userID, err)
		}
		return nil, false
	}

	if record.Expired(time.Now()) {
		s.bestEffortDelete(&record, "expired")
		return nil, false
	}

	if record.AffiliateCode == nil {
		s.bestEffortDelete(&record, "code row missing")
		return nil, false
	}

	validation, err := s.codes.ValidateCode(record.AffiliateCode.Code)
	if err != nil {
		// The code went inactive, expired, or lost its owner after the
		// attribution was stored. Drop the record and fall through.
		s.bestEffortDelete(&record, err.Error())
		return nil, false
	}

	return &ResolvedAttribution{
		Source:         SourceRecord,
		RecordID:       &record.ID,
		Code:           validation.Code,
		CodeID:         validation.CodeID,
		OwnerID:        validation.OwnerID,
		OwnerName:      validation.OwnerName,
		CommissionRate: validation.CommissionRate,
		AttributedAt:   record.CreatedAt,
		ExpiresAt:      record.ExpiresAt,
		OriginalUserID: record.OriginalUserID,
		VisitorSession: record.VisitorSession,
	}, false
}

// lookupToken resolves the browser-side attribution token
func (s *AttributionService) lookupToken(_ *uint, rawToken string) (*ResolvedAttribution, bool) {
	if rawToken == "" {
		return nil, false
	}

	claims, err := auth.ParseAttributionToken(rawToken)
	if err != nil {
		// Unparseable, tampered, or past its embedded expiry: treat as
		// absent and have the caller clear the cookie.
		return nil, true
	}

	validation, err := s.codes.ValidateCode(claims.Code)
	if err != nil {
		return nil, true
	}

	return &ResolvedAttribution{
		Source:         SourceToken,
		Code:           validation.Code,
		CodeID:         validation.CodeID,
		OwnerID:        validation.OwnerID,
		OwnerName:      validation.OwnerName,
		CommissionRate: validation.CommissionRate,
		AttributedAt:   claims.AttributedAt(),
		ExpiresAt:      claims.ExpiryTime(),
		OriginalUserID: claims.OriginalUserID,
		VisitorSession: claims.VisitorSession,
	}, false
}

// bestEffortDelete removes a stale attribution record without ever failing
// the read path. Redundant deletes from concurrent readers are harmless.
func (s *AttributionService) bestEffortDelete(record *models.Attribution, reason string) {
	if err := s.db.Delete(&models.Attribution{}, record.ID).Error; err != nil {
		log.Printf("Cleanup of attribution %d (%s) failed: %v", record.ID, reason, err)
	}
}

// TransferResult reports the outcome of a token-to-durable migration
type TransferResult struct {
	Migrated   bool `json:"migrated"`
	ClearToken bool `json:"clear_token"`
}

// TransferTokenToDurable migrates a browser attribution token into a durable
// record for a freshly authenticated user. Idempotent per (user, code): a
// second call finds the existing record, reports success, and still asks for
// the cookie to be cleared. The token survives only on insert failure so the
// next login can retry.
func (s *AttributionService) TransferTokenToDurable(userID uint, rawToken string) (*TransferResult, error) {
	if rawToken == "" {
		return &TransferResult{Migrated: false, ClearToken: false}, nil
	}

	claims, err := auth.ParseAttributionToken(rawToken)
	if err != nil {
		return &TransferResult{Migrated: false, ClearToken: true}, nil
	}

	validation, err := s.codes.ValidateCode(claims.Code)
	if err != nil {
		if IsValidationError(err) {
			return &TransferResult{Migrated: false, ClearToken: true}, nil
		}
		return &TransferResult{Migrated: false, ClearToken: false}, err
	}

	// Already migrated? An expired leftover row does not count: it is dead
	// weight awaiting cleanup and must not swallow the fresh claim.
	var existing models.Attribution
	err = s.db.Where("user_id = ? AND affiliate_code_id = ? AND converted = ?",
		userID, validation.CodeID, false).First(&existing).Error
	switch {
	case err == nil && !existing.Expired(time.Now()):
		return &TransferResult{Migrated: true, ClearToken: true}, nil
	case err == nil:
		s.bestEffortDelete(&existing, "expired")
	case err != gorm.ErrRecordNotFound:
		return &TransferResult{Migrated: false, ClearToken: false}, err
	}

	record := models.Attribution{
		AffiliateCodeID: validation.CodeID,
		UserID:          userID,
		OwnerID:         validation.OwnerID,
		OriginalUserID:  claims.OriginalUserID,
		VisitorSession:  claims.VisitorSession,
		CreatedAt:       claims.AttributedAt(),
		ExpiresAt:       claims.ExpiryTime(),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return &TransferResult{Migrated: false, ClearToken: false},
			fmt.Errorf("failed to migrate attribution: %w", err)
	}

	log.Printf("Migrated attribution token to record %d for user %d (code %s)", record.ID, userID, validation.Code)
	return &TransferResult{Migrated: true, ClearToken: true}, nil
}

// CaptureResult is returned when a visitor or user captures a code
type CaptureResult struct {
	Token        string              `json:"-"`
	Record       *models.Attribution `json:"record,omitempty"`
	Validation   *CodeValidation     `json:"validation"`
	AttributedAt time.Time           `json:"attributed_at"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// CaptureCode records that a visitor encountered an affiliate code. Logged-in
// users get a durable record (idempotent per user+code); everyone gets a
// signed token for the attribution cookie so the claim survives logout.
func (s *AttributionService) CaptureCode(userID *uint, visitorSession *string, code string) (*CaptureResult, error) {
	validation, err := s.codes.ValidateCode(code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.windowDays) * 24 * time.Hour)

	result := &CaptureResult{
		Validation:   validation,
		AttributedAt: now,
		ExpiresAt:    expiresAt,
	}

	if userID != nil {
		var existing models.Attribution
		err := s.db.Where("user_id = ? AND affiliate_code_id = ? AND converted = ?",
			*userID, validation.CodeID, false).First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}

		if err == nil && !existing.Expired(now) {
			result.Record = &existing
		} else {
			if err == nil {
				// The previous window elapsed; a fresh capture starts a new one
				s.bestEffortDelete(&existing, "expired")
			}
			record := models.Attribution{
				AffiliateCodeID: validation.CodeID,
				UserID:          *userID,
				OwnerID:         validation.OwnerID,
				OriginalUserID:  userID,
				VisitorSession:  visitorSession,
				CreatedAt:       now,
				ExpiresAt:       expiresAt,
			}
			if err := s.db.Create(&record).Error; err != nil {
				return nil, fmt.Errorf("failed to create attribution: %w", err)
			}
			result.Record = &record
		}
	}

	token, err := auth.SignAttributionToken(validation.Code, userID, visitorSession, now, expiresAt)
	if err != nil {
		return nil, err
	}
	result.Token = token

	return result, nil
}

// SweepExpired deletes unconverted attributions past their expiry window.
// Run periodically by the sweeper job; safe to run concurrently.
func (s *AttributionService) SweepExpired() (int64, error) {
	result := s.db.Where("converted = ? AND expires_at < ?", false, time.Now()).
		Delete(&models.Attribution{})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Swept %d expired attributions", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
