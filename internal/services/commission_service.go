package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stylist-marketplace/internal/models"
	"stylist-marketplace/internal/repository"
)

type CommissionService struct {
	db   *gorm.DB
	repo *repository.Repository
}

func NewCommissionService(db *gorm.DB) *CommissionService {
	return &CommissionService{
		db:   db,
		repo: repository.NewRepository(db),
	}
}

// RecordCommission converts a paid booking into a commission ledger line.
// Idempotent per booking: duplicate triggers (double webhook delivery,
// concurrent callers) all observe the same single record. Bookings without
// affiliate data return (nil, nil), which most bookings do.
func (s *CommissionService) RecordCommission(ctx context.Context, bookingID uint) (*models.CommissionRecord, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %d: %w", bookingID, err)
	}

	if booking.PaymentStatus != models.PaymentStatusSucceeded {
		log.Printf("Skipping commission for booking %d: payment status %s", bookingID, booking.PaymentStatus)
		return nil, nil
	}

	if booking.AffiliateOwnerID == nil || !booking.CommissionAmount.IsPositive() {
		return nil, nil
	}

	record := models.CommissionRecord{
		BookingID:      booking.ID,
		OwnerID:        *booking.AffiliateOwnerID,
		Amount:         booking.CommissionAmount,
		CommissionRate: booking.CommissionRate,
		Status:         models.CommissionStatusPending,
	}

	// Link the originating attribution before the insert so the ledger line
	// carries it even when the later conversion update fails.
	attribution := s.findOriginatingAttribution(booking)
	if attribution != nil {
		record.AttributionID = &attribution.ID
	}

	created, err := s.repo.CreateCommissionIfAbsent(ctx, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to record commission: %w", err)
	}

	if !created {
		// A concurrent writer won the unique booking_id index; return its row.
		existing, err := s.repo.GetCommissionByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing commission for booking %d: %w", booking.ID, err)
		}
		return existing, nil
	}

	log.Printf("Commission recorded: %s NOK for owner %d on booking %d", record.Amount, record.OwnerID, booking.ID)

	// Conversion of the attribution is best-effort; the commission record is
	// already committed and must not be rolled back on failure here.
	if attribution != nil {
		if err := s.repo.MarkAttributionConverted(ctx, attribution.ID, booking.ID); err != nil {
			log.Printf("Warning: failed to mark attribution %d converted: %v", attribution.ID, err)
		}
	}

	if err := s.RecalculateAffiliateStats(record.OwnerID); err != nil {
		log.Printf("Warning: failed to update affiliate stats for owner %d: %v", record.OwnerID, err)
	}

	return &record, nil
}

// findOriginatingAttribution locates the unconverted attribution behind a
// booking's affiliate data, if any
func (s *CommissionService) findOriginatingAttribution(booking *models.Booking) *models.Attribution {
	if booking.AffiliateCodeID == nil {
		return nil
	}

	var attribution models.Attribution
	err := s.db.Where("user_id = ? AND affiliate_code_id = ? AND converted = ?",
		booking.CustomerID, *booking.AffiliateCodeID, false).
		First(&attribution).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Attribution lookup for booking %d failed: %v", booking.ID, err)
		}
		return nil
	}
	return &attribution
}

// ListCommissions returns all commission records for a stylist
func (s *CommissionService) ListCommissions(ctx context.Context, ownerID uint) ([]models.CommissionRecord, error) {
	return s.repo.ListCommissionsByOwner(ctx, ownerID)
}

// GetAffiliateStats returns aggregated affiliate statistics for a stylist
func (s *CommissionService) GetAffiliateStats(ownerID uint) (*models.AffiliateStats, error) {
	var stats models.AffiliateStats
	result := s.db.Where("owner_id = ?", ownerID).First(&stats)

	if result.Error == gorm.ErrRecordNotFound {
		stats = models.AffiliateStats{
			OwnerID:               ownerID,
			TotalCommissionEarned: decimal.Zero,
			TotalCommissionPaid:   decimal.Zero,
		}
		if err := s.db.Create(&stats).Error; err != nil {
			return nil, err
		}
		return &stats, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &stats, nil
}

// RecalculateAffiliateStats rebuilds a stylist's aggregates from the ground
// truth in attributions and commission records
func (s *CommissionService) RecalculateAffiliateStats(ownerID uint) error {
	var totalAttributions int64
	if err := s.db.Model(&models.Attribution{}).Where("owner_id = ?", ownerID).
		Count(&totalAttributions).Error; err != nil {
		return err
	}

	var convertedAttributions int64
	if err := s.db.Model(&models.Attribution{}).Where("owner_id = ? AND converted = ?", ownerID, true).
		Count(&convertedAttributions).Error; err != nil {
		return err
	}

	var totalEarned decimal.Decimal
	row := s.db.Model(&models.CommissionRecord{}).Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&totalEarned); err != nil {
		totalEarned = decimal.Zero
	}

	var totalPaid decimal.Decimal
	row = s.db.Model(&models.CommissionRecord{}).Where("owner_id = ? AND status = ?", ownerID, models.CommissionStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&totalPaid); err != nil {
		totalPaid = decimal.Zero
	}

	var stats models.AffiliateStats
	result := s.db.Where("owner_id = ?", ownerID).First(&stats)

	if result.Error == gorm.ErrRecordNotFound {
		stats = models.AffiliateStats{
			OwnerID:               ownerID,
			TotalAttributions:     int(totalAttributions),
			ConvertedAttributions: int(convertedAttributions),
			TotalCommissionEarned: totalEarned,
			TotalCommissionPaid:   totalPaid,
		}
		return s.db.Create(&stats).Error
	}

	if result.Error != nil {
		return result.Error
	}

	return s.db.Model(&stats).Updates(map[string]interface{}{
		"total_attributions":      totalAttributions,
		"converted_attributions":  convertedAttributions,
		"total_commission_earned": totalEarned,
		"total_commission_paid":   totalPaid,
		"updated_at":              time.Now(),
	}).Error
}
