package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
)

type Purchase struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"user_id"`
	ProductID   int64                `json:"product_id"`
	Quantity    int                  `json:"quantity"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	PaidAmount  decimal.Decimal      `json:"paid_amount"`
	DueAmount   decimal.Decimal      `json:"due_amount"`
	Status      enums.PurchaseStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type Installment struct {
	ID            int64                   `json:"id"`
	PurchaseID    int64                   `json:"purchase_id"`
	InstallmentNo int                     `json:"installment_no"`
	Amount        decimal.Decimal         `json:"amount"`
	DueDate       time.Time               `json:"due_date"`
	PaidDate      *time.Time              `json:"paid_date,omitempty"`
	PaymentRef    string                  `json:"payment_ref,omitempty"`
	Status        enums.InstallmentStatus `json:"status"`
}

// Paid derives the legacy boolean flag from the status column, which is
// the single source of truth.
func (i Installment) Paid() bool {
	return i.Status == enums.InstallmentStatusPaid
}
