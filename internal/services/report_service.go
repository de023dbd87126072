package services

import (
	"partner-portal-service/internal/models"
)

// ReportStore is the aggregation surface backing admin reports.
type ReportStore interface {
	LeadMetrics() (*models.LeadMetrics, error)
	PaymentMetrics() (*models.PaymentMetrics, error)
	PartnerPerformance() ([]models.PartnerPerformance, error)
	PartnerDashboard(partnerID int64) (*models.PartnerDashboard, error)
}

type ReportService struct {
	reports ReportStore
}

func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{
		reports: reports,
	}
}

// LeadSummary returns portal-wide lead metrics for admins
func (s *ReportService) LeadSummary() (*models.LeadMetrics, error) {
	return s.reports.LeadMetrics()
}

// PaymentSummary returns portal-wide payment metrics for admins
func (s *ReportService) PaymentSummary() (*models.PaymentMetrics, error) {
	return s.reports.PaymentMetrics()
}

// PartnerPerformance returns per-partner conversion and payout totals
func (s *ReportService) PartnerPerformance() ([]models.PartnerPerformance, error) {
	return s.reports.PartnerPerformance()
}

// PartnerDashboard returns the summary shown to a partner after login
func (s *ReportService) PartnerDashboard(partnerID int64) (*models.PartnerDashboard, error) {
	return s.reports.PartnerDashboard(partnerID)
}
