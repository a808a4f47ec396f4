package dto

import "time"

type PlanEntryRequest struct {
	Amount    string `json:"amount"`
	DaysAfter int    `json:"days_after"`
}

type PurchaseCreateRequest struct {
	ProductID  int64              `json:"product_id"`
	Quantity   int                `json:"quantity"`
	PaidAmount string             `json:"paid_amount,omitempty"`
	Mode       string             `json:"mode,omitempty"`
	Plan       []PlanEntryRequest `json:"plan,omitempty"`
}

type PurchaseResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ProductID   int64     `json:"product_id"`
	Quantity    int       `json:"quantity"`
	TotalAmount string    `json:"total_amount"`
	PaidAmount  string    `json:"paid_amount"`
	DueAmount   string    `json:"due_amount"`
	Status      string    `json:"status"`
	IsPaid      bool      `json:"is_paid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InstallmentResponse struct {
	ID            int64      `json:"id"`
	PurchaseID    int64      `json:"purchase_id"`
	InstallmentNo int        `json:"installment_no"`
	Amount        string     `json:"amount"`
	DueDate       time.Time  `json:"due_date"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	PaymentRef    *string    `json:"payment_ref,omitempty"`
	Status        string     `json:"status"`
	IsPaid        bool       `json:"is_paid"`
}

type PurchaseDetailResponse struct {
	Purchase     PurchaseResponse      `json:"purchase"`
	Installments []InstallmentResponse `json:"installments"`
}

type PurchaseListResponse struct {
	Items []PurchaseDetailResponse `json:"items"`
	Meta  PageMeta                 `json:"meta"`
}

type InstallmentListResponse struct {
	Items []InstallmentResponse `json:"items"`
	Meta  PageMeta              `json:"meta"`
}

type PayInstallmentResponse struct {
	Installment InstallmentResponse `json:"installment"`
	Purchase    PurchaseResponse    `json:"purchase"`
	FullyPaid   bool                `json:"fully_paid"`
}
