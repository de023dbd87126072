package models

// MonthlyCount is one month's bucket in a trend series. Month is formatted
// YYYY-MM.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// LeadMetrics summarizes lead volume and conversion across the portal.
type LeadMetrics struct {
	TotalLeads     int            `json:"total_leads"`
	ConvertedLeads int            `json:"converted_leads"`
	ConversionRate float64        `json:"conversion_rate"`
	StatusCounts   map[string]int `json:"status_counts"`
	MonthlyTrend   []MonthlyCount `json:"monthly_trend"`
}

// PaymentMetrics summarizes outstanding and settled referral payments.
type PaymentMetrics struct {
	PendingCount   int     `json:"pending_count"`
	PendingAmount  float64 `json:"pending_amount"`
	ReleasedCount  int     `json:"released_count"`
	ReleasedAmount float64 `json:"released_amount"`
}

// PartnerPerformance is one partner's row in the performance report.
type PartnerPerformance struct {
	PartnerID      int64   `json:"partner_id"`
	PartnerName    string  `json:"partner_name"`
	TotalLeads     int     `json:"total_leads"`
	ConvertedLeads int     `json:"converted_leads"`
	ConversionRate float64 `json:"conversion_rate"`
	TotalEarned    float64 `json:"total_earned"`
}

// PartnerDashboard is the summary a partner sees on login.
type PartnerDashboard struct {
	TotalLeads     int     `json:"total_leads"`
	ConvertedLeads int     `json:"converted_leads"`
	PendingAmount  float64 `json:"pending_amount"`
	ReleasedAmount float64 `json:"released_amount"`
}
