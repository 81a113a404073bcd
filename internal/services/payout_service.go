package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stylist-marketplace/internal/models"
	"stylist-marketplace/internal/repository"
)

// PaymentProvider moves an aggregate payout amount to a stylist's registered
// payout destination. Implemented by payments.Client; faked in tests.
type PaymentProvider interface {
	CreateTransfer(ctx context.Context, destination string, amount decimal.Decimal, currency, reference string) (string, error)
}

type PayoutService struct {
	db       *gorm.DB
	repo     *repository.Repository
	provider PaymentProvider
}

func NewPayoutService(db *gorm.DB, provider PaymentProvider) *PayoutService {
	return &PayoutService{
		db:       db,
		repo:     repository.NewRepository(db),
		provider: provider,
	}
}

// GeneratePayoutBatch aggregates a stylist's unbatched pending commissions in
// the period into a single pending batch. Batch creation and the batched_at
// marking of the included records commit in one transaction: a mid-operation
// failure leaves every record unmarked, never a partial subset that would be
// silently dropped from all future batches.
func (s *PayoutService) GeneratePayoutBatch(ctx context.Context, ownerID uint, periodStart, periodEnd time.Time) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var records []models.CommissionRecord
		if err := tx.Where(
			"owner_id = ? AND status = ? AND batched_at IS NULL AND created_at >= ? AND created_at < ?",
			ownerID, models.CommissionStatusPending, periodStart, periodEnd,
		).Find(&records).Error; err != nil {
			return err
		}

		if len(records) == 0 {
			return ErrNothingToPay
		}

		total := decimal.Zero
		ids := make([]uint, 0, len(records))
		for _, record := range records {
			total = total.Add(record.Amount)
			ids = append(ids, record.ID)
		}

		batch = models.PayoutBatch{
			BatchRef:    uuid.New(),
			OwnerID:     ownerID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			TotalAmount: total,
			RecordCount: len(records),
			Status:      models.PayoutStatusPending,
		}

		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("failed to create payout batch: %w", err)
		}

		now := time.Now()
		if err := tx.Model(&models.CommissionRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"payout_batch_id": batch.ID,
				"batched_at":      now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark commissions as batched: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Payout batch %s created for owner %d: %s NOK over %d records",
		batch.BatchRef, ownerID, batch.TotalAmount, batch.RecordCount)
	return &batch, nil
}

// SubmitPayoutBatch submits a pending batch to the payment provider. The
// batch ref is the provider idempotency key. Provider failure is terminal for
// the batch: it goes to FAILED and stays there until an administrator
// re-drives it, there is no automatic retry.
func (s *PayoutService) SubmitPayoutBatch(ctx context.Context, batchID uint) (*models.PayoutBatch, error) {
	batch, err := s.repo.GetPayoutBatchByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout batch %d: %w", batchID, err)
	}

	if batch.Status != models.PayoutStatusPending {
		return nil, ErrBatchNotPending
	}

	var owner models.User
	if err := s.db.WithContext(ctx).Where("id = ?", batch.OwnerID).First(&owner).Error; err != nil {
		return nil, fmt.Errorf("failed to load batch owner %d: %w", batch.OwnerID, err)
	}
	if owner.PayoutAccountID == nil || *owner.PayoutAccountID == "" {
		return nil, ErrOwnerNotPayable
	}

	// Conditional claim: of two concurrent submitters only one reaches the
	// provider, the other gets ErrBatchNotPending from the store.
	claimed, err := s.repo.ClaimPayoutBatch(ctx, batch.ID, models.PayoutStatusPending, models.PayoutStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrBatchNotPending
	}
	batch.Status = models.PayoutStatusProcessing

	transferID, err := s.provider.CreateTransfer(ctx, *owner.PayoutAccountID, batch.TotalAmount, "NOK", batch.BatchRef.String())
	if err != nil {
		log.Printf("Payout batch %s transfer failed: %v", batch.BatchRef, err)
		if updateErr := s.repo.UpdatePayoutBatchStatus(ctx, batch.ID, map[string]interface{}{
			"status":         models.PayoutStatusFailed,
			"failure_reason": err.Error(),
		}); updateErr != nil {
			log.Printf("Warning: failed to mark batch %d failed: %v", batch.ID, updateErr)
		}
		batch.Status = models.PayoutStatusFailed
		batch.FailureReason = err.Error()
		return batch, fmt.Errorf("%w: %v", ErrProviderTransfer, err)
	}

	now := time.Now()
	if err := s.repo.UpdatePayoutBatchStatus(ctx, batch.ID, map[string]interface{}{
		"status":               models.PayoutStatusPaid,
		"provider_transfer_id": transferID,
		"paid_at":              now,
	}); err != nil {
		return nil, fmt.Errorf("transfer %s succeeded but batch update failed: %w", transferID, err)
	}
	batch.Status = models.PayoutStatusPaid
	batch.ProviderTransferID = &transferID
	batch.PaidAt = &now

	if err := s.repo.MarkBatchCommissionsPaid(ctx, batch.ID, now); err != nil {
		log.Printf("Warning: failed to mark commissions paid for batch %d: %v", batch.ID, err)
	}

	commissionService := NewCommissionService(s.db)
	if err := commissionService.RecalculateAffiliateStats(batch.OwnerID); err != nil {
		log.Printf("Warning: failed to update affiliate stats for owner %d: %v", batch.OwnerID, err)
	}

	log.Printf("Payout batch %s paid: transfer %s, %s NOK to owner %d",
		batch.BatchRef, transferID, batch.TotalAmount, batch.OwnerID)
	return batch, nil
}

// ListPayoutBatches returns payout batches for a stylist
func (s *PayoutService) ListPayoutBatches(ctx context.Context, ownerID uint) ([]models.PayoutBatch, error) {
	return s.repo.ListPayoutBatchesByOwner(ctx, ownerID)
}
