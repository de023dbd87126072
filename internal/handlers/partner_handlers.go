package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-portal-service/internal/middleware"
	"partner-portal-service/internal/models"
	"partner-portal-service/internal/services"
)

// PartnerHandlers serves the partner-facing API: dashboard, profile, own
// leads and own payments.
type PartnerHandlers struct {
	partnerService *services.PartnerService
	leadService    *services.LeadService
	paymentService *services.PaymentService
	reportService  *services.ReportService
}

func NewPartnerHandlers(partnerService *services.PartnerService, leadService *services.LeadService, paymentService *services.PaymentService, reportService *services.ReportService) *PartnerHandlers {
	return &PartnerHandlers{
		partnerService: partnerService,
		leadService:    leadService,
		paymentService: paymentService,
		reportService:  reportService,
	}
}

// CreateLeadRequest represents a new referral submission
type CreateLeadRequest struct {
	StudentName string  `json:"student_name" binding:"required"`
	Mobile      string  `json:"mobile" binding:"required"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	// CurrentStatus is the student's own description, e.g. "12th pass".
	CurrentStatus string `json:"current_status"`
}

// UpdateProfileRequest represents a partner's edit of their own profile
type UpdateProfileRequest struct {
	Name       string  `json:"name" binding:"required"`
	Email      *string `json:"email"`
	ShopName   *string `json:"shop_name"`
	Profession *string `json:"profession"`
	Address    *string `json:"address"`
}

// ChangePasswordRequest represents a partner password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// Dashboard returns the partner's lead and payment summary
func (h *PartnerHandlers) Dashboard(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	dashboard, err := h.reportService.PartnerDashboard(partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}

// GetProfile returns the partner's own profile
func (h *PartnerHandlers) GetProfile(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	partner, err := h.partnerService.GetByID(partnerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// UpdateProfile applies the partner's edit to their own profile
func (h *PartnerHandlers) UpdateProfile(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	partner, err := h.partnerService.UpdateOwnProfile(partnerID, req.Name, req.ShopName, req.Profession, req.Email, req.Address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// ChangePassword changes the partner's own password
func (h *PartnerHandlers) ChangePassword(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.partnerService.ChangePassword(partnerID, req.CurrentPassword, req.NewPassword); err != nil {
		if err == models.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// CreateLead submits a new referral. If the partner already referred the
// same mobile number the lead is still created and the response carries a
// duplicate warning.
func (h *PartnerHandlers) CreateLead(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	lead := &models.Lead{
		PartnerID:     partnerID,
		StudentName:   req.StudentName,
		Mobile:        req.Mobile,
		Email:         req.Email,
		Address:       req.Address,
		CurrentStatus: req.CurrentStatus,
	}

	duplicate, err := h.leadService.Create(lead)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lead"})
		return
	}

	resp := gin.H{"lead": lead}
	if duplicate {
		resp["warning"] = "You have already referred a lead with this mobile number"
	}
	c.JSON(http.StatusCreated, resp)
}

// ListLeads returns the partner's own leads
func (h *PartnerHandlers) ListLeads(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	leads, err := h.leadService.ListForPartner(partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": len(leads)})
}

// GetLead returns one of the partner's own leads. Other partners' leads
// come back as not found.
func (h *PartnerHandlers) GetLead(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	leadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lead, err := h.leadService.GetByID(leadID)
	if err != nil || lead.PartnerID != partnerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// ListPayments returns the partner's own payments
func (h *PartnerHandlers) ListPayments(c *gin.Context) {
	partnerID, _ := middleware.GetUserID(c)

	payments, err := h.paymentService.ListForPartner(partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": len(payments)})
}
