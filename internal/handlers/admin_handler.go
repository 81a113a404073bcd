package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stylist-marketplace/internal/services"
)

type AdminHandler struct {
	db                 *gorm.DB
	payoutService      *services.PayoutService
	attributionService *services.AttributionService
}

func NewAdminHandler(db *gorm.DB, payoutService *services.PayoutService, windowDays int) *AdminHandler {
	return &AdminHandler{
		db:                 db,
		payoutService:      payoutService,
		attributionService: services.NewAttributionService(db, windowDays),
	}
}

// GeneratePayoutBatch aggregates a stylist's unbatched commissions for a
// period into a pending payout batch
func (h *AdminHandler) GeneratePayoutBatch(c *gin.Context) {
	var req struct {
		OwnerID     uint   `json:"owner_id" binding:"required"`
		PeriodStart string `json:"period_start" binding:"required"`
		PeriodEnd   string `json:"period_end" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	periodStart, err := parsePeriodTime(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_start"})
		return
	}
	periodEnd, err := parsePeriodTime(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_end"})
		return
	}

	batch, err := h.payoutService.GeneratePayoutBatch(c.Request.Context(), req.OwnerID, periodStart, periodEnd)
	if err != nil {
		if errors.Is(err, services.ErrNothingToPay) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate payout batch"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    batch,
	})
}

// SubmitPayoutBatch submits a pending payout batch to the payment provider
func (h *AdminHandler) SubmitPayoutBatch(c *gin.Context) {
	batchID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch id"})
		return
	}

	batch, err := h.payoutService.SubmitPayoutBatch(c.Request.Context(), uint(batchID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBatchNotPending), errors.Is(err, services.ErrOwnerNotPayable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrProviderTransfer):
			// The batch is now FAILED; return its state so the admin sees it
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   "Provider transfer failed",
				"data":    batch,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit payout batch"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    batch,
	})
}

// ListPayoutBatches returns payout batches for one stylist
func (h *AdminHandler) ListPayoutBatches(c *gin.Context) {
	ownerID, err := strconv.ParseUint(c.Query("owner_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id query parameter required"})
		return
	}

	batches, err := h.payoutService.ListPayoutBatches(c.Request.Context(), uint(ownerID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payout batches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    batches,
		"count":   len(batches),
	})
}

// SweepAttributions triggers a manual sweep of expired unconverted
// attributions
func (h *AdminHandler) SweepAttributions(c *gin.Context) {
	swept, err := h.attributionService.SweepExpired()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sweep attributions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"swept":   swept,
	})
}

// parsePeriodTime accepts RFC3339 timestamps or plain dates
func parsePeriodTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
