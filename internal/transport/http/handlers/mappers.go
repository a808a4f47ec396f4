package handlers

import (
	"github.com/pkaravayeu/paylater/internal/domain/enums"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	catalogsvc "github.com/pkaravayeu/paylater/internal/services/catalog"
	ledgersvc "github.com/pkaravayeu/paylater/internal/services/ledger"
	notifysvc "github.com/pkaravayeu/paylater/internal/services/notifications"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
)

func categoryResponse(record pgrepo.CategoryRecord) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
	}
}

func productResponse(record pgrepo.ProductRecord) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          record.ID,
		CategoryID:  record.CategoryID,
		Name:        record.Name,
		Description: record.Description,
		Price:       record.Price.StringFixed(2),
		Stock:       record.Stock,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// purchaseResponse derives is_paid from the status so the two can never
// disagree on the wire.
func purchaseResponse(record pgrepo.PurchaseRecord) dto.PurchaseResponse {
	return dto.PurchaseResponse{
		ID:          record.ID,
		UserID:      record.UserID,
		ProductID:   record.ProductID,
		Quantity:    record.Quantity,
		TotalAmount: record.TotalAmount.StringFixed(2),
		PaidAmount:  record.PaidAmount.StringFixed(2),
		DueAmount:   record.DueAmount.StringFixed(2),
		Status:      record.Status,
		IsPaid:      record.Status == string(enums.PurchaseStatusPaid),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func installmentResponse(record pgrepo.InstallmentRecord) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		ID:            record.ID,
		PurchaseID:    record.PurchaseID,
		InstallmentNo: record.InstallmentNo,
		Amount:        record.Amount.StringFixed(2),
		DueDate:       record.DueDate,
		PaidDate:      record.PaidDate,
		PaymentRef:    record.PaymentRef,
		Status:        record.Status,
		IsPaid:        record.Status == string(enums.InstallmentStatusPaid),
	}
}

func installmentResponses(records []pgrepo.InstallmentRecord) []dto.InstallmentResponse {
	items := make([]dto.InstallmentResponse, 0, len(records))
	for _, record := range records {
		items = append(items, installmentResponse(record))
	}
	return items
}

func notificationResponse(record pgrepo.NotificationRecord) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        record.ID,
		UserID:    record.UserID,
		Message:   record.Message,
		Type:      record.Type,
		IsRead:    record.IsRead,
		CreatedAt: record.CreatedAt,
	}
}

func catalogPageMeta(page catalogsvc.Page) dto.PageMeta {
	return dto.PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total, TotalPages: page.TotalPages}
}

func ledgerPageMeta(page ledgersvc.Page) dto.PageMeta {
	return dto.PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total, TotalPages: page.TotalPages}
}

func notifyPageMeta(page notifysvc.Page) dto.PageMeta {
	return dto.PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total, TotalPages: page.TotalPages}
}
