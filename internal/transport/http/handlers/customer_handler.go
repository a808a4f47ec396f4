package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

// CustomerHandler serves the admin customer-management endpoints. Its routes
// are gated to the admin role.
type CustomerHandler struct {
	auth *authsvc.Service
}

func NewCustomerHandler(auth *authsvc.Service) *CustomerHandler {
	return &CustomerHandler{auth: auth}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	page, pageSize := pageQuery(r)
	customers, meta, err := h.auth.ListCustomers(r.Context(), page, pageSize)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list customers")
		return
	}

	items := make([]dto.MeResponse, 0, len(customers))
	for _, customer := range customers {
		items = append(items, meResponse(customer))
	}
	httperrors.Write(w, http.StatusOK, dto.CustomerListResponse{
		Items: items,
		Meta: dto.PageMeta{
			Page:       meta.Page,
			PageSize:   meta.PageSize,
			Total:      meta.Total,
			TotalPages: meta.TotalPages,
		},
	})
}

func (h *CustomerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	customerID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid customer id")
		return
	}

	me, err := h.auth.VerifyCustomer(r.Context(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid customer id")
		case errors.Is(err, authsvc.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "customer not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to verify customer")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, meResponse(me))
}
