package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stylist-marketplace/internal/services"
)

type WebhookHandler struct {
	db                *gorm.DB
	commissionService *services.CommissionService
}

func NewWebhookHandler(db *gorm.DB) *WebhookHandler {
	return &WebhookHandler{
		db:                db,
		commissionService: services.NewCommissionService(db),
	}
}

// PaymentEvent handles payment-succeeded notifications from the payment
// provider. Providers redeliver events, so this endpoint is idempotent:
// recording the commission for an already-processed booking returns the
// existing record.
func (h *WebhookHandler) PaymentEvent(c *gin.Context) {
	var event struct {
		EventType string `json:"event_type" binding:"required"`
		BookingID uint   `json:"booking_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if event.EventType != "payment.succeeded" {
		// Acknowledge unrelated events so the provider stops redelivering
		c.JSON(http.StatusOK, gin.H{"success": true, "handled": false})
		return
	}

	record, err := h.commissionService.RecordCommission(c.Request.Context(), event.BookingID)
	if err != nil {
		log.Printf("Webhook: failed to record commission for booking %d: %v", event.BookingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record commission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"handled": true,
		"data":    record,
	})
}
