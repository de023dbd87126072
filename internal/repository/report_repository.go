package repository

import (
	"database/sql"

	"partner-portal-service/internal/models"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{
		db: db,
	}
}

// LeadMetrics aggregates lead counts, conversion rate and a monthly creation
// trend over the last six months.
func (r *ReportRepository) LeadMetrics() (*models.LeadMetrics, error) {
	metrics := &models.LeadMetrics{
		StatusCounts: make(map[string]int),
	}

	rows, err := r.db.Query(`SELECT lead_status, COUNT(*) FROM leads GROUP BY lead_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		metrics.StatusCounts[status] = count
		metrics.TotalLeads += count
		if status == string(models.LeadStatusConverted) {
			metrics.ConvertedLeads = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if metrics.TotalLeads > 0 {
		metrics.ConversionRate = float64(metrics.ConvertedLeads) / float64(metrics.TotalLeads) * 100
	}

	trend, err := r.monthlyTrend()
	if err != nil {
		return nil, err
	}
	metrics.MonthlyTrend = trend

	return metrics, nil
}

func (r *ReportRepository) monthlyTrend() ([]models.MonthlyCount, error) {
	rows, err := r.db.Query(`
		SELECT to_char(created_at, 'YYYY-MM') AS month, COUNT(*)
		FROM leads
		WHERE created_at >= date_trunc('month', NOW()) - INTERVAL '5 months'
		GROUP BY month
		ORDER BY month ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []models.MonthlyCount
	for rows.Next() {
		var mc models.MonthlyCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		trend = append(trend, mc)
	}

	return trend, rows.Err()
}

// PaymentMetrics aggregates pending and released payment totals.
func (r *ReportRepository) PaymentMetrics() (*models.PaymentMetrics, error) {
	metrics := &models.PaymentMetrics{}

	rows, err := r.db.Query(`
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		var amount float64
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, err
		}
		switch status {
		case models.PaymentStatusPending:
			metrics.PendingCount = count
			metrics.PendingAmount = amount
		case models.PaymentStatusReleased:
			metrics.ReleasedCount = count
			metrics.ReleasedAmount = amount
		}
	}

	return metrics, rows.Err()
}

// PartnerPerformance returns per-partner lead and payout totals, best
// converters first. Soft-deleted partners are excluded.
func (r *ReportRepository) PartnerPerformance() ([]models.PartnerPerformance, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.name,
		       COUNT(l.id) AS total_leads,
		       COUNT(l.id) FILTER (WHERE l.lead_status = 'Converted') AS converted_leads,
		       COALESCE(SUM(pay.amount) FILTER (WHERE pay.status = 'Released'), 0) AS total_earned
		FROM partners p
		LEFT JOIN leads l ON l.partner_id = p.id
		LEFT JOIN payments pay ON pay.partner_id = p.id
		WHERE p.is_deleted = false
		GROUP BY p.id, p.name
		ORDER BY converted_leads DESC, total_leads DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var performance []models.PartnerPerformance
	for rows.Next() {
		var pp models.PartnerPerformance
		if err := rows.Scan(&pp.PartnerID, &pp.PartnerName, &pp.TotalLeads, &pp.ConvertedLeads, &pp.TotalEarned); err != nil {
			return nil, err
		}
		if pp.TotalLeads > 0 {
			pp.ConversionRate = float64(pp.ConvertedLeads) / float64(pp.TotalLeads) * 100
		}
		performance = append(performance, pp)
	}

	return performance, rows.Err()
}

// PartnerDashboard aggregates a single partner's lead and payment totals.
func (r *ReportRepository) PartnerDashboard(partnerID int64) (*models.PartnerDashboard, error) {
	dashboard := &models.PartnerDashboard{}

	err := r.db.QueryRow(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE lead_status = 'Converted')
		FROM leads WHERE partner_id = $1
	`, partnerID).Scan(&dashboard.TotalLeads, &dashboard.ConvertedLeads)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(`
		SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'Pending'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'Released'), 0)
		FROM payments WHERE partner_id = $1
	`, partnerID).Scan(&dashboard.PendingAmount, &dashboard.ReleasedAmount)
	if err != nil {
		return nil, err
	}

	return dashboard, nil
}
