package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	ledgersvc "github.com/pkaravayeu/paylater/internal/services/ledger"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type InstallmentHandler struct {
	ledger *ledgersvc.Service
}

func NewInstallmentHandler(ledger *ledgersvc.Service) *InstallmentHandler {
	return &InstallmentHandler{ledger: ledger}
}

func (h *InstallmentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	installmentID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid installment id")
		return
	}

	result, err := h.ledger.PayInstallment(r.Context(), identity, installmentID)
	if err != nil {
		handleLedgerError(w, err, "failed to pay installment")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PayInstallmentResponse{
		Installment: installmentResponse(result.Installment),
		Purchase:    purchaseResponse(result.Purchase),
		FullyPaid:   result.FullyPaid,
	})
}

func (h *InstallmentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	input := ledgersvc.InstallmentListInput{
		UserID:   parseInt64OrDefault(query.Get("user_id"), 0),
		Status:   query.Get("status"),
		SortBy:   query.Get("sort_by"),
		SortDesc: strings.EqualFold(query.Get("sort_order"), "desc"),
		Page:     page,
		PageSize: pageSize,
	}
	// is_paid is accepted for compatibility and folds into the status filter.
	if raw := query.Get("is_paid"); raw != "" && input.Status == "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "is_paid must be a boolean")
			return
		}
		if paid {
			input.Status = string(enums.InstallmentStatusPaid)
		} else {
			input.Unpaid = true
		}
	}
	if raw := query.Get("due_from"); raw != "" {
		due, err := parseDate(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "due_from must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		input.DueFrom = &due
	}
	if raw := query.Get("due_to"); raw != "" {
		due, err := parseDate(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "due_to must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		input.DueTo = &due
	}

	records, meta, err := h.ledger.ListInstallments(r.Context(), identity, input)
	if err != nil {
		handleLedgerError(w, err, "failed to list installments")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.InstallmentListResponse{
		Items: installmentResponses(records),
		Meta:  ledgerPageMeta(meta),
	})
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
