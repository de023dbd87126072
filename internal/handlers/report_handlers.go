package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-portal-service/internal/services"
)

// ReportHandlers serves the admin reporting endpoints.
type ReportHandlers struct {
	reportService *services.ReportService
}

func NewReportHandlers(reportService *services.ReportService) *ReportHandlers {
	return &ReportHandlers{
		reportService: reportService,
	}
}

// LeadSummary returns portal-wide lead metrics
func (h *ReportHandlers) LeadSummary(c *gin.Context) {
	metrics, err := h.reportService.LeadSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build lead report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": metrics})
}

// PaymentSummary returns portal-wide payment metrics
func (h *ReportHandlers) PaymentSummary(c *gin.Context) {
	metrics, err := h.reportService.PaymentSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build payment report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": metrics})
}

// PartnerPerformance returns per-partner conversion and payout totals
func (h *ReportHandlers) PartnerPerformance(c *gin.Context) {
	performance, err := h.reportService.PartnerPerformance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build partner report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": performance})
}
