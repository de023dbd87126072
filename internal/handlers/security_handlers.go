package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-portal-service/internal/middleware"
)

// SecurityHandlers serves the admin lockout management endpoints.
type SecurityHandlers struct {
	securityMw *middleware.SecurityMiddleware
}

func NewSecurityHandlers(securityMw *middleware.SecurityMiddleware) *SecurityHandlers {
	return &SecurityHandlers{
		securityMw: securityMw,
	}
}

// UnlockRequest identifies a lockout entry. Identifier is the login email
// (admins) or mobile number (partners); IP is where the failed attempts
// came from, since lockout state is keyed per IP and identifier pair.
type UnlockRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	IP         string `json:"ip" binding:"required"`
}

// GetLockoutStatus handles GET /api/v1/admin/security/lockouts
func (h *SecurityHandlers) GetLockoutStatus(c *gin.Context) {
	identifier := c.Query("identifier")
	ip := c.Query("ip")
	if identifier == "" || ip == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier and ip query parameters are required"})
		return
	}

	ctx := c.Request.Context()
	locked, remaining := h.securityMw.IsLocked(ctx, ip, identifier)

	c.JSON(http.StatusOK, gin.H{
		"locked":             locked,
		"retry_after":        int(remaining.Seconds()),
		"failed_attempts":    h.securityMw.GetFailedAttempts(ctx, ip, identifier),
		"attempts_remaining": h.securityMw.GetRemainingAttempts(ctx, ip, identifier),
	})
}

// UnlockAccount handles POST /api/v1/admin/security/unlock
func (h *SecurityHandlers) UnlockAccount(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	h.securityMw.Unlock(c.Request.Context(), req.IP, req.Identifier)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Lockout cleared",
		"identifier": req.Identifier,
	})
}
