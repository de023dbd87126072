package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"partner-portal-service/internal/clients"
	"partner-portal-service/internal/middleware"
	"partner-portal-service/internal/models"
	"partner-portal-service/internal/repository"
	"partner-portal-service/internal/services"
)

// AdminHandlers serves the admin-facing portal API: partner management,
// lead oversight and payment release.
type AdminHandlers struct {
	partnerService *services.PartnerService
	leadService    *services.LeadService
	paymentService *services.PaymentService
	notifications  *clients.NotificationClient
}

func NewAdminHandlers(partnerService *services.PartnerService, leadService *services.LeadService, paymentService *services.PaymentService, notifications *clients.NotificationClient) *AdminHandlers {
	return &AdminHandlers{
		partnerService: partnerService,
		leadService:    leadService,
		paymentService: paymentService,
		notifications:  notifications,
	}
}

// CreatePartnerRequest represents a partner registration request
type CreatePartnerRequest struct {
	Name       string  `json:"name" binding:"required"`
	Mobile     string  `json:"mobile" binding:"required"`
	Password   string  `json:"password" binding:"required,min=8"`
	Email      *string `json:"email"`
	ShopName   *string `json:"shop_name"`
	Profession *string `json:"profession"`
	Address    *string `json:"address"`
}

// UpdatePartnerRequest represents an admin edit of a partner profile
type UpdatePartnerRequest struct {
	Name       string  `json:"name" binding:"required"`
	Email      *string `json:"email"`
	Status     string  `json:"status" binding:"required"`
	ShopName   *string `json:"shop_name"`
	Profession *string `json:"profession"`
	Address    *string `json:"address"`
}

// UpdateLeadStatusRequest represents a lead status change request
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetPartnerStatusRequest represents a partner activation toggle
type SetPartnerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ResetPasswordRequest represents an admin password reset for a partner
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// CreatePartner registers a new partner account
func (h *AdminHandlers) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	partner := &models.Partner{
		Name:       req.Name,
		Mobile:     req.Mobile,
		Email:      req.Email,
		ShopName:   req.ShopName,
		Profession: req.Profession,
		Address:    req.Address,
	}

	if err := h.partnerService.Register(partner, req.Password); err != nil {
		if err == models.ErrDuplicateMobile {
			c.JSON(http.StatusConflict, gin.H{"error": "A partner with this mobile number already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create partner"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"partner": partner})
}

// ListPartners returns a page of partners
func (h *AdminHandlers) ListPartners(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	status := c.Query("status")

	partners, total, err := h.partnerService.List(page, perPage, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list partners"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partners": partners,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetPartner returns a single partner
func (h *AdminHandlers) GetPartner(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	partner, err := h.partnerService.GetByID(partnerID)
	if err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get partner"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// UpdatePartner applies an admin edit to a partner profile
func (h *AdminHandlers) UpdatePartner(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	partner, err := h.partnerService.UpdateByAdmin(partnerID, req.Name, req.Email, req.Status, req.ShopName, req.Profession, req.Address)
	if err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// SetPartnerStatus activates or deactivates a partner account. Deactivated
// partners are rejected on their next request even with a live token.
func (h *AdminHandlers) SetPartnerStatus(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetPartnerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.partnerService.SetStatus(partnerID, req.Status); err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Partner status updated"})
}

// ResetPartnerPassword sets a new password for a partner
func (h *AdminHandlers) ResetPartnerPassword(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.partnerService.ResetPassword(partnerID, req.Password); err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// DeletePartner soft-deletes a partner account
func (h *AdminHandlers) DeletePartner(c *gin.Context) {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.partnerService.Delete(partnerID); err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete partner"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Partner deleted successfully"})
}

// ListLeads returns leads matching the query filters
func (h *AdminHandlers) ListLeads(c *gin.Context) {
	filter := repository.LeadFilter{}

	if raw := c.Query("partner_id"); raw != "" {
		partnerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid partner_id"})
			return
		}
		filter.PartnerID = partnerID
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseLeadStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		filter.Status = status
	}
	var ok bool
	if filter.DateFrom, ok = parseDateQuery(c, "date_from"); !ok {
		return
	}
	if filter.DateTo, ok = parseDateQuery(c, "date_to"); !ok {
		return
	}

	leads, err := h.leadService.ListAdmin(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": len(leads)})
}

// GetLead returns a single lead
func (h *AdminHandlers) GetLead(c *gin.Context) {
	leadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lead, err := h.leadService.GetByID(leadID)
	if err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// UpdateLeadStatus applies a status transition to a lead. Converted leads
// are terminal and reject further changes.
func (h *AdminHandlers) UpdateLeadStatus(c *gin.Context) {
	leadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	adminID, _ := middleware.GetUserID(c)

	lead, err := h.leadService.UpdateStatus(leadID, req.Status, models.UserTypeAdmin, adminID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidLeadStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lead status", "valid_statuses": models.AllLeadStatuses})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		case errors.Is(err, models.ErrLeadConverted):
			c.JSON(http.StatusConflict, gin.H{"error": "Converted leads cannot change status"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update lead status"})
		}
		return
	}

	if lead.LeadStatus == models.LeadStatusConverted {
		h.notifyLeadConverted(lead)
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// notifyLeadConverted emails the partner about the conversion. Best effort,
// off the request path.
func (h *AdminHandlers) notifyLeadConverted(lead *models.Lead) {
	partner, err := h.partnerService.GetByID(lead.PartnerID)
	if err != nil || partner.Email == nil {
		return
	}

	email, name, student := *partner.Email, partner.Name, lead.StudentName
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.notifications.SendLeadConvertedNotification(ctx, email, name, student); err != nil {
			logrus.WithError(err).Warn("Failed to send lead converted notification")
		}
	}()
}

// LeadHistory returns the status change audit trail for a lead
func (h *AdminHandlers) LeadHistory(c *gin.Context) {
	leadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.leadService.History(leadID)
	if err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get lead history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ListPayments returns payments matching the query filters
func (h *AdminHandlers) ListPayments(c *gin.Context) {
	filter := repository.PaymentFilter{
		Status: c.Query("status"),
	}

	if raw := c.Query("partner_id"); raw != "" {
		partnerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid partner_id"})
			return
		}
		filter.PartnerID = partnerID
	}
	var ok bool
	if filter.DueFrom, ok = parseDateQuery(c, "due_from"); !ok {
		return
	}
	if filter.DueTo, ok = parseDateQuery(c, "due_to"); !ok {
		return
	}

	payments, err := h.paymentService.ListAdmin(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": len(payments)})
}

// ReleasePayment marks a pending payment as released. Releasing an already
// released payment is a no-op and still returns the payment.
func (h *AdminHandlers) ReleasePayment(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payment, released, err := h.paymentService.Release(paymentID)
	if err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release payment"})
		return
	}

	if released {
		h.notifyPaymentReleased(payment)
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// notifyPaymentReleased emails the partner about the released payment.
// Best effort, off the request path.
func (h *AdminHandlers) notifyPaymentReleased(payment *models.Payment) {
	partner, err := h.partnerService.GetByID(payment.PartnerID)
	if err != nil || partner.Email == nil {
		return
	}

	email, name, amount := *partner.Email, partner.Name, payment.Amount
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.notifications.SendPaymentReleasedNotification(ctx, email, name, amount); err != nil {
			logrus.WithError(err).Warn("Failed to send payment released notification")
		}
	}()
}

// parseIDParam parses a numeric path parameter, writing the error response
// itself when the value is not a valid id.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ", expected YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}
