package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

// Handler exposes coupon endpoints: public listing and simulation plus
// administrative management.
type Handler struct {
	Svc *Service
}

type couponPayload struct {
	Code            string     `json:"code"`
	DiscountPercent float64    `json:"discountPercent"`
	Scope           string     `json:"scope"`
	Active          *bool      `json:"active"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	AppliesTo       []string   `json:"appliesTo"`
}

type couponView struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	DiscountPercent float64    `json:"discountPercent"`
	Scope           string     `json:"scope"`
	Active          bool       `json:"active"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	AppliesTo       []string   `json:"appliesTo,omitempty"`
}

type simulateRequest struct {
	Code           string `json:"code"`
	UnitPriceMinor int64  `json:"unitPriceMinor"`
	Quantity       int    `json:"quantity"`
	UnitCostMinor  *int64 `json:"unitCostMinor"`
}

// ListActive returns the coupons customers may currently apply.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	rows, err := h.Svc.ListActive(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	common.JSONData(w, http.StatusOK, toViews(rows))
}

// List returns every coupon for administration.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	rows, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	common.JSONData(w, http.StatusOK, toViews(rows))
}

// Create inserts a new coupon.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	row, err := h.Svc.Create(r.Context(), toParams(payload))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, toView(row))
}

// Update mutates an existing coupon identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	row, err := h.Svc.Update(r.Context(), id, toParams(payload))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
		case errors.Is(err, ErrInvalidInput):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, toView(row))
}

// Delete removes a coupon.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Simulate returns the projected impact of a coupon on one product line.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	var unitCost *pricing.Money
	if req.UnitCostMinor != nil {
		cost := pricing.Money(*req.UnitCostMinor)
		unitCost = &cost
	}
	result, err := h.Svc.Simulate(r.Context(), req.Code, pricing.Money(req.UnitPriceMinor), req.Quantity, unitCost)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
		case errors.Is(err, ErrInvalidInput):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to simulate coupon", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

func toParams(payload couponPayload) store.CreateCouponParams {
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	return store.CreateCouponParams{
		Code:       payload.Code,
		PercentBps: pricing.BpsFromPercent(payload.DiscountPercent),
		Scope:      payload.Scope,
		Active:     active,
		ExpiresAt:  payload.ExpiresAt,
		AppliesTo:  payload.AppliesTo,
	}
}

func toView(row store.Coupon) couponView {
	return couponView{
		ID:              row.ID.String(),
		Code:            row.Code,
		DiscountPercent: pricing.PercentFromBps(row.PercentBps),
		Scope:           row.Scope,
		Active:          row.Active,
		ExpiresAt:       row.ExpiresAt,
		AppliesTo:       row.AppliesTo,
	}
}

func toViews(rows []store.Coupon) []couponView {
	views := make([]couponView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	return views
}
