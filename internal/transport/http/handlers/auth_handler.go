package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
}

func NewAuthHandler(service *authsvc.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	me, err := h.service.Register(r.Context(), authsvc.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
		case errors.Is(err, authsvc.ErrEmailTaken):
			writeConflict(w, "EMAIL_TAKEN", "email is already registered")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to register")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, meResponse(me))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			writeUnauthorized(w, "INVALID_CREDENTIALS", "email or password is incorrect")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to log in")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokenResponse{
		AccessToken:  res.AccessToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		Me:           meResponse(res.Me),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to log out")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	me, err := h.service.Profile(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, authsvc.ErrUnauthorized) {
			writeUnauthorized(w, "UNAUTHORIZED", "account no longer exists")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		return
	}

	httperrors.Write(w, http.StatusOK, meResponse(me))
}

func meResponse(me authsvc.Me) dto.MeResponse {
	return dto.MeResponse{
		ID:         me.ID,
		Name:       me.Name,
		Email:      me.Email,
		Role:       string(me.Role),
		IsVerified: me.Verified,
	}
}
