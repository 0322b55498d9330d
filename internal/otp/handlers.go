package otp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meadowline/backend-dairy/internal/common"
)

// Handler exposes phone login endpoints.
type Handler struct {
	Svc *Service
}

type requestPayload struct {
	Phone string `json:"phone"`
}

type verifyPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Request handles POST /api/auth/otp/request.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "otp service not configured", nil)
		return
	}
	var req requestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if err := h.Svc.Request(r.Context(), req.Phone); err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// Verify handles POST /api/auth/otp/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "otp service not configured", nil)
		return
	}
	var req verifyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	result, err := h.Svc.Verify(r.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPhone):
		common.JSONError(w, http.StatusBadRequest, "INVALID_PHONE", "phone number is not valid", nil)
	case errors.Is(err, ErrInvalidCode):
		common.JSONError(w, http.StatusUnauthorized, "INVALID_CODE", "code is invalid or expired", nil)
	case errors.Is(err, ErrRateLimited):
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many code requests, try again later", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
