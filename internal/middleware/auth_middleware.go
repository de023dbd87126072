package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"partner-portal-service/internal/models"
	"partner-portal-service/internal/services"
)

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// authenticate validates the presented access token against the signature
// and the session ledger and stores the claims in the request context. It
// aborts with 401 and reports false on failure. It never calls c.Next, so
// callers can layer role checks before the chain continues.
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	token := m.extractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authorization token required",
			"code":  "MISSING_TOKEN",
		})
		c.Abort()
		return false
	}

	claims, err := m.authService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
			"code":  "INVALID_TOKEN",
		})
		c.Abort()
		return false
	}

	c.Set("user_id", claims.UserID)
	c.Set("user_name", claims.Name)
	c.Set("role", claims.Role)
	c.Set("token_id", claims.ID)

	return true
}

// AuthRequired middleware that requires a valid, non-revoked access token.
// Revocation is checked against the session ledger on every request.
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c)
	}
}

// AdminOnly requires an authenticated admin whose account is still active.
// Account state is re-verified on each request, so deactivating an admin
// takes effect before their token expires.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}

		role, _ := GetRole(c)
		userID, _ := GetUserID(c)
		if role != models.UserTypeAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
				"code":  "INSUFFICIENT_ROLE",
			})
			c.Abort()
			return
		}

		admin, err := m.authService.GetAdmin(userID)
		if err != nil || !admin.IsActive {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Account is inactive",
				"code":  "ACCOUNT_INACTIVE",
			})
			c.Abort()
			return
		}
	}
}

// PartnerOnly requires an authenticated partner whose account is still
// active and not deleted.
func (m *AuthMiddleware) PartnerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}

		role, _ := GetRole(c)
		userID, _ := GetUserID(c)
		if role != models.UserTypePartner {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Partner access required",
				"code":  "INSUFFICIENT_ROLE",
			})
			c.Abort()
			return
		}

		partner, err := m.authService.GetPartner(userID)
		if err != nil || partner.IsDeleted || partner.Status != models.PartnerStatusActive {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Account is inactive",
				"code":  "ACCOUNT_INACTIVE",
			})
			c.Abort()
			return
		}
	}
}

// extractToken extracts the JWT token from the Authorization header
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// GetUserID utility function to get the authenticated user's id from context
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(int64)
	return id, ok
}

// GetRole utility function to get the authenticated role from context
func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get("role")
	if !exists {
		return "", false
	}

	roleStr, ok := role.(string)
	return roleStr, ok
}

// GetTokenID utility function to get the current token's jti from context
func GetTokenID(c *gin.Context) (string, bool) {
	tokenID, exists := c.Get("token_id")
	if !exists {
		return "", false
	}

	jti, ok := tokenID.(string)
	return jti, ok
}
