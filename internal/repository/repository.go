package repository

import (
	"context"
	"time"

	"stylist-marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookingByID retrieves a booking by ID
func (r *Repository) GetBookingByID(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateCommissionIfAbsent inserts a commission record unless one already
// exists for the booking. The unique index on booking_id is the arbiter:
// a losing concurrent writer inserts nothing and reports created=false, and
// the caller re-fetches the winner's row. No application-level locking.
func (r *Repository) CreateCommissionIfAbsent(ctx context.Context, record *models.CommissionRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetCommissionByBookingID retrieves the commission record for a booking
func (r *Repository) GetCommissionByBookingID(ctx context.Context, bookingID uint) (*models.CommissionRecord, error) {
	var record models.CommissionRecord
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCommissionsByOwner retrieves all commission records for a stylist
func (r *Repository) ListCommissionsByOwner(ctx context.Context, ownerID uint) ([]models.CommissionRecord, error) {
	var records []models.CommissionRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkAttributionConverted flags an attribution as converted and links it to
// the booking that produced the commission
func (r *Repository) MarkAttributionConverted(ctx context.Context, attributionID uint, bookingID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Attribution{}).
		Where("id = ?", attributionID).
		Updates(map[string]interface{}{
			"converted":  true,
			"booking_id": bookingID,
		}).Error
}

// GetPayoutBatchByID retrieves a payout batch by ID
func (r *Repository) GetPayoutBatchByID(ctx context.Context, batchID uint) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch
	err := r.db.WithContext(ctx).Where("id = ?", batchID).First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListPayoutBatchesByOwner retrieves payout batches for a stylist
func (r *Repository) ListPayoutBatchesByOwner(ctx context.Context, ownerID uint) ([]models.PayoutBatch, error) {
	var batches []models.PayoutBatch
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// ClaimPayoutBatch transitions a batch between statuses only while it still
// holds the expected one. The conditional update lets the database arbitrate
// between concurrent submitters; the loser sees claimed=false.
func (r *Repository) ClaimPayoutBatch(ctx context.Context, batchID uint, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutBatch{}).
		Where("id = ? AND status = ?", batchID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdatePayoutBatchStatus updates the status fields of a payout batch
func (r *Repository) UpdatePayoutBatchStatus(ctx context.Context, batchID uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutBatch{}).
		Where("id = ?", batchID).
		Updates(updates).Error
}

// MarkBatchCommissionsPaid marks every commission record in a batch as paid
func (r *Repository) MarkBatchCommissionsPaid(ctx context.Context, batchID uint, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CommissionRecord{}).
		Where("payout_batch_id = ?", batchID).
		Updates(map[string]interface{}{
			"status":  models.CommissionStatusPaid,
			"paid_at": paidAt,
		}).Error
}
