package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"partner-portal-service/internal/middleware"
	"partner-portal-service/internal/models"
	"partner-portal-service/internal/services"
)

type AuthHandlers struct {
	authService *services.AuthService
}

func NewAuthHandlers(authService *services.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// AdminLoginRequest represents an admin login request
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PartnerLoginRequest represents a partner login request
type PartnerLoginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents a refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AdminLogin authenticates an admin by email and password
func (h *AuthHandlers) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	admin, accessToken, refreshToken, err := h.authService.AdminLogin(
		req.Email, req.Password, c.ClientIP(), c.GetHeader("User-Agent"),
	)
	if err != nil {
		middleware.RecordLoginAttemptFromContext(c, false)
		h.renderLoginError(c, err)
		return
	}

	middleware.RecordLoginAttemptFromContext(c, true)

	c.JSON(http.StatusOK, gin.H{
		"user":          admin,
		"role":          models.UserTypeAdmin,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.authService.GetTokenExpiry().Seconds()),
	})
}

// PartnerLogin authenticates a partner by mobile number and password
func (h *AuthHandlers) PartnerLogin(c *gin.Context) {
	var req PartnerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	partner, accessToken, refreshToken, err := h.authService.PartnerLogin(
		req.Mobile, req.Password, c.ClientIP(), c.GetHeader("User-Agent"),
	)
	if err != nil {
		middleware.RecordLoginAttemptFromContext(c, false)
		h.renderLoginError(c, err)
		return
	}

	middleware.RecordLoginAttemptFromContext(c, true)

	c.JSON(http.StatusOK, gin.H{
		"user":          partner,
		"role":          models.UserTypePartner,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.authService.GetTokenExpiry().Seconds()),
	})
}

func (h *AuthHandlers) renderLoginError(c *gin.Context, err error) {
	switch err {
	case models.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case models.ErrAccountInactive:
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
	}
}

// RefreshToken issues a new access token from a valid refresh token
func (h *AuthHandlers) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	accessToken, err := h.authService.Refresh(req.RefreshToken, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(h.authService.GetTokenExpiry().Seconds()),
	})
}

// Logout revokes the current access token
func (h *AuthHandlers) Logout(c *gin.Context) {
	tokenID, ok := middleware.GetTokenID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.authService.Logout(tokenID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Sessions returns the caller's recent login history
func (h *AuthHandlers) Sessions(c *gin.Context) {
	role, _ := middleware.GetRole(c)
	userID, _ := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	sessions, err := h.authService.Sessions(role, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
}

// Me returns the authenticated account
func (h *AuthHandlers) Me(c *gin.Context) {
	role, _ := middleware.GetRole(c)
	userID, _ := middleware.GetUserID(c)

	switch role {
	case models.UserTypeAdmin:
		admin, err := h.authService.GetAdmin(userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": admin, "role": role})
	case models.UserTypePartner:
		partner, err := h.authService.GetPartner(userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": partner, "role": role})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	}
}
