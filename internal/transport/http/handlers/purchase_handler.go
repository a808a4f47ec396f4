package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pkaravayeu/paylater/internal/domain/rules"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	ledgersvc "github.com/pkaravayeu/paylater/internal/services/ledger"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type PurchaseHandler struct {
	ledger *ledgersvc.Service
}

func NewPurchaseHandler(ledger *ledgersvc.Service) *PurchaseHandler {
	return &PurchaseHandler{ledger: ledger}
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	var req dto.PurchaseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	input := ledgersvc.CreatePurchaseInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Mode:      ledgersvc.Mode(req.Mode),
	}
	if req.PaidAmount != "" {
		paid, err := decimal.NewFromString(req.PaidAmount)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "paid_amount must be a decimal string")
			return
		}
		input.PaidAmount = paid
	}
	for _, entry := range req.Plan {
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "plan amounts must be decimal strings")
			return
		}
		input.Plan = append(input.Plan, rules.PlanEntry{Amount: amount, DaysAfter: entry.DaysAfter})
	}

	detail, err := h.ledger.CreatePurchase(r.Context(), identity, input)
	if err != nil {
		handleLedgerError(w, err, "failed to create purchase")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.PurchaseDetailResponse{
		Purchase:     purchaseResponse(detail.Purchase),
		Installments: installmentResponses(detail.Installments),
	})
}

func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	purchaseID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase id")
		return
	}

	detail, err := h.ledger.GetPurchase(r.Context(), identity, purchaseID)
	if err != nil {
		handleLedgerError(w, err, "failed to load purchase")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseDetailResponse{
		Purchase:     purchaseResponse(detail.Purchase),
		Installments: installmentResponses(detail.Installments),
	})
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	query := r.URL.Query()
	page, pageSize := pageQuery(r)

	input := ledgersvc.PurchaseListInput{
		UserID:   parseInt64OrDefault(query.Get("user_id"), 0),
		Status:   query.Get("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := query.Get("created_from"); raw != "" {
		created, err := parseDate(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "created_from must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		input.CreatedFrom = &created
	}
	if raw := query.Get("created_to"); raw != "" {
		created, err := parseDate(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "created_to must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		input.CreatedTo = &created
	}

	records, meta, err := h.ledger.ListPurchases(r.Context(), identity, input)
	if err != nil {
		handleLedgerError(w, err, "failed to list purchases")
		return
	}

	items := make([]dto.PurchaseDetailResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.PurchaseDetailResponse{
			Purchase:     purchaseResponse(record.Purchase),
			Installments: installmentResponses(record.Installments),
		})
	}
	httperrors.Write(w, http.StatusOK, dto.PurchaseListResponse{Items: items, Meta: ledgerPageMeta(meta)})
}

func handleLedgerError(w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, ledgersvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase payload")
	case errors.Is(err, ledgersvc.ErrProductNotFound):
		writeNotFound(w, "PRODUCT_NOT_FOUND", "product not found")
	case errors.Is(err, ledgersvc.ErrPurchaseNotFound):
		writeNotFound(w, "PURCHASE_NOT_FOUND", "purchase not found")
	case errors.Is(err, ledgersvc.ErrInstallmentNotFound):
		writeNotFound(w, "INSTALLMENT_NOT_FOUND", "installment not found")
	case errors.Is(err, ledgersvc.ErrOutOfStock):
		writeConflict(w, "OUT_OF_STOCK", "insufficient product stock")
	case errors.Is(err, ledgersvc.ErrInstallmentPaid):
		writeConflict(w, "INSTALLMENT_ALREADY_PAID", "installment is already paid")
	case errors.Is(err, ledgersvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you do not own this resource")
	default:
		writeInternal(w, "INTERNAL_ERROR", internalMessage)
	}
}
