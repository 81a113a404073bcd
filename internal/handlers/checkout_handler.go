package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stylist-marketplace/internal/auth"
	"stylist-marketplace/internal/services"
)

type CheckoutHandler struct {
	db                 *gorm.DB
	checkoutService    *services.CheckoutService
	attributionService *services.AttributionService
	cookieName         string
	cookieDomain       string
}

func NewCheckoutHandler(db *gorm.DB, cookieName, cookieDomain string, windowDays int) *CheckoutHandler {
	if cookieName == "" {
		cookieName = auth.AttributionCookieName
	}
	return &CheckoutHandler{
		db:                 db,
		checkoutService:    services.NewCheckoutService(db),
		attributionService: services.NewAttributionService(db, windowDays),
		cookieName:         cookieName,
		cookieDomain:       cookieDomain,
	}
}

// ComputeDiscount previews the affiliate discount for the caller's cart.
// Ineligibility is silent and non-blocking: the cart simply proceeds at full
// price, so every "no discount" outcome is a 200 with applicable=false.
func (h *CheckoutHandler) ComputeDiscount(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Items []services.CartItem `json:"items" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rawToken, _ := c.Cookie(h.cookieName)
	attribution, clearToken := h.attributionService.GetAttribution(&userID, rawToken)
	if clearToken {
		c.SetCookie(h.cookieName, "", -1, "/", h.cookieDomain, false, true)
	}

	if attribution == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"applicable": false},
		})
		return
	}

	if err := h.checkoutService.CanRedeem(userID, attribution); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"applicable": false, "reason": err.Error()},
		})
		return
	}

	result, err := h.checkoutService.ComputeDiscount(req.Items, attribution)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    gin.H{"applicable": false, "reason": err.Error()},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute discount"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
