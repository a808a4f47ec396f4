package handlers

import (
	"errors"
	"net/http"

	reportsvc "github.com/pkaravayeu/paylater/internal/services/reports"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type ReportHandler struct {
	reports *reportsvc.Service
}

func NewReportHandler(reports *reportsvc.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	stats, err := h.reports.GetDashboardStats(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load dashboard stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DashboardStatsResponse{
		TotalPurchases:    stats.TotalPurchases,
		TotalInstallments: stats.TotalInstallments,
		TotalProducts:     stats.TotalProducts,
		PaidCount:         stats.PaidCount,
		PendingCount:      stats.PendingCount,
		OverdueCount:      stats.OverdueCount,
		PaidAmount:        stats.PaidAmount.StringFixed(2),
		PendingAmount:     stats.PendingAmount.StringFixed(2),
		OverdueAmount:     stats.OverdueAmount.StringFixed(2),
	})
}

func (h *ReportHandler) Period(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	query := r.URL.Query()
	start, err := parseDate(query.Get("start"))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "start must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}
	end, err := parseDate(query.Get("end"))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "end must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}

	report, err := h.reports.GetPeriodReport(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, reportsvc.ErrInvalidPeriod) {
			writeBadRequest(w, "VALIDATION_ERROR", "end must be after start")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to build period report")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PeriodReportResponse{
		Start:     report.Start,
		End:       report.End,
		Weekly:    bucketResponses(report.Weekly),
		Monthly:   bucketResponses(report.Monthly),
		TotalPaid: report.TotalPaid.StringFixed(2),
		TotalDue:  report.TotalDue.StringFixed(2),
	})
}

func bucketResponses(buckets []reportsvc.PeriodBucket) []dto.PeriodBucketResponse {
	items := make([]dto.PeriodBucketResponse, 0, len(buckets))
	for _, bucket := range buckets {
		items = append(items, dto.PeriodBucketResponse{
			Start:      bucket.Start,
			End:        bucket.End,
			PaidAmount: bucket.PaidAmount.StringFixed(2),
			DueAmount:  bucket.DueAmount.StringFixed(2),
		})
	}
	return items
}
