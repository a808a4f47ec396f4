package dto

import "time"

type DashboardStatsResponse struct {
	TotalPurchases    int64  `json:"total_purchases"`
	TotalInstallments int64  `json:"total_installments"`
	TotalProducts     int64  `json:"total_products"`
	PaidCount         int64  `json:"paid_count"`
	PendingCount      int64  `json:"pending_count"`
	OverdueCount      int64  `json:"overdue_count"`
	PaidAmount        string `json:"paid_amount"`
	PendingAmount     string `json:"pending_amount"`
	OverdueAmount     string `json:"overdue_amount"`
}

type PeriodBucketResponse struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PaidAmount string    `json:"paid_amount"`
	DueAmount  string    `json:"due_amount"`
}

type PeriodReportResponse struct {
	Start     time.Time              `json:"start"`
	End       time.Time              `json:"end"`
	Weekly    []PeriodBucketResponse `json:"weekly"`
	Monthly   []PeriodBucketResponse `json:"monthly"`
	TotalPaid string                 `json:"total_paid"`
	TotalDue  string                 `json:"total_due"`
}
