package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stylist-marketplace/internal/auth"
	"stylist-marketplace/internal/services"
)

type AffiliateHandler struct {
	db                 *gorm.DB
	codeService        *services.CodeService
	attributionService *services.AttributionService
	commissionService  *services.CommissionService
	cookieName         string
	cookieDomain       string
	cookieMaxAge       int
}

func NewAffiliateHandler(db *gorm.DB, cookieName, cookieDomain string, windowDays int) *AffiliateHandler {
	if cookieName == "" {
		cookieName = auth.AttributionCookieName
	}
	return &AffiliateHandler{
		db:                 db,
		codeService:        services.NewCodeService(db),
		attributionService: services.NewAttributionService(db, windowDays),
		commissionService:  services.NewCommissionService(db),
		cookieName:         cookieName,
		cookieDomain:       cookieDomain,
		cookieMaxAge:       windowDays * 24 * 3600,
	}
}

// readAttributionCookie returns the raw attribution cookie, empty when absent
func (h *AffiliateHandler) readAttributionCookie(c *gin.Context) string {
	raw, err := c.Cookie(h.cookieName)
	if err != nil {
		return ""
	}
	return raw
}

func (h *AffiliateHandler) setAttributionCookie(c *gin.Context, token string) {
	c.SetCookie(h.cookieName, token, h.cookieMaxAge, "/", h.cookieDomain, false, true)
}

func (h *AffiliateHandler) clearAttributionCookie(c *gin.Context) {
	c.SetCookie(h.cookieName, "", -1, "/", h.cookieDomain, false, true)
}

// optionalUserID returns a pointer to the authenticated user id, nil for
// anonymous visitors
func optionalUserID(c *gin.Context) *uint {
	userID, exists := auth.GetUserID(c)
	if !exists {
		return nil
	}
	return &userID
}

// ValidateCode checks a manually entered code. Rejections name the reason
// class without internal detail.
func (h *AffiliateHandler) ValidateCode(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validation, err := h.codeService.ValidateCode(req.Code)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    validation,
	})
}

// GetMyCode returns (creating if needed) the affiliate code of the
// authenticated stylist
func (h *AffiliateHandler) GetMyCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	code, err := h.codeService.GetStylistCode(userID)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get affiliate code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    code,
	})
}

// CaptureCode records that the visitor encountered an affiliate code and sets
// the attribution cookie. Works for both anonymous and logged-in visitors.
func (h *AffiliateHandler) CaptureCode(c *gin.Context) {
	var req struct {
		Code           string  `json:"code" binding:"required"`
		VisitorSession *string `json:"visitor_session,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.attributionService.CaptureCode(optionalUserID(c), req.VisitorSession, req.Code)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to capture code"})
		return
	}

	h.setAttributionCookie(c, result.Token)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetAttribution resolves the caller's current attribution from the durable
// record or the cookie. A stale cookie is cleared as a side effect.
func (h *AffiliateHandler) GetAttribution(c *gin.Context) {
	attribution, clearToken := h.attributionService.GetAttribution(optionalUserID(c), h.readAttributionCookie(c))
	if clearToken {
		h.clearAttributionCookie(c)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    attribution,
	})
}

// TransferAttribution migrates the cookie attribution into a durable record
// after login. The cookie is kept on transient failure so a retry is possible.
func (h *AffiliateHandler) TransferAttribution(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.attributionService.TransferTokenToDurable(userID, h.readAttributionCookie(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to migrate attribution"})
		return
	}

	if result.ClearToken {
		h.clearAttributionCookie(c)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetCommissions returns the authenticated stylist's commission ledger and
// aggregated stats
func (h *AffiliateHandler) GetCommissions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	records, err := h.commissionService.ListCommissions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get commissions"})
		return
	}

	stats, err := h.commissionService.GetAffiliateStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
		"stats":   stats,
	})
}
