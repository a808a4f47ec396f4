package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	notifysvc "github.com/pkaravayeu/paylater/internal/services/notifications"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type NotificationHandler struct {
	notifications *notifysvc.Service
}

func NewNotificationHandler(notifications *notifysvc.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.notifications == nil {
		writeInternal(w, "NOTIFICATION_SERVICE_UNAVAILABLE", "notification service is unavailable")
		return
	}

	page, pageSize := pageQuery(r)
	filterUserID := parseInt64OrDefault(r.URL.Query().Get("user_id"), 0)

	records, meta, err := h.notifications.List(r.Context(), identity, filterUserID, page, pageSize)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list notifications")
		return
	}

	items := make([]dto.NotificationResponse, 0, len(records))
	for _, record := range records {
		items = append(items, notificationResponse(record))
	}
	httperrors.Write(w, http.StatusOK, dto.NotificationListResponse{Items: items, Meta: notifyPageMeta(meta)})
}

// Send lets an admin push a message to a user. The route is gated to the
// admin role.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h.notifications == nil {
		writeInternal(w, "NOTIFICATION_SERVICE_UNAVAILABLE", "notification service is unavailable")
		return
	}

	var req dto.NotificationSendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.notifications.Send(r.Context(), req.UserID, req.Message); err != nil {
		if errors.Is(err, notifysvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "user_id and message are required")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to send notification")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NotificationSendResponse{OK: true})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.notifications == nil {
		writeInternal(w, "NOTIFICATION_SERVICE_UNAVAILABLE", "notification service is unavailable")
		return
	}

	notificationID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), identity, notificationID); err != nil {
		switch {
		case errors.Is(err, notifysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid notification id")
		case errors.Is(err, notifysvc.ErrNotificationNotFound):
			writeNotFound(w, "NOTIFICATION_NOT_FOUND", "notification not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to mark notification read")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkReadResponse{OK: true})
}
