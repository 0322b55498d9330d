package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/coupon"
	"github.com/meadowline/backend-dairy/internal/pricing"
)

// Handler exposes the authenticated cart endpoints.
type Handler struct {
	Svc *Service
}

type lineRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type mergeRequest struct {
	Cart pricing.Cart `json:"cart"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type cartView struct {
	Cart          pricing.Cart `json:"cart"`
	AppliedCoupon *string      `json:"appliedCoupon,omitempty"`
}

type totalView struct {
	SubtotalMinor int64   `json:"subtotalMinor"`
	DiscountMinor int64   `json:"discountMinor"`
	ShippingMinor int64   `json:"shippingMinor"`
	TotalMinor    int64   `json:"totalMinor"`
	CouponCode    *string `json:"couponCode,omitempty"`
}

// Get handles GET /api/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	state, err := h.Svc.Get(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, cartView{Cart: state.Cart, AppliedCoupon: state.AppliedCoupon})
}

// Add handles POST /api/cart/add.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	state, err := h.Svc.Add(r.Context(), userID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		h.writeError(w, err, "failed to add to cart")
		return
	}
	common.JSONData(w, http.StatusOK, cartView{Cart: state.Cart, AppliedCoupon: state.AppliedCoupon})
}

// Update handles POST /api/cart/update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	state, err := h.Svc.SetQuantity(r.Context(), userID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		h.writeError(w, err, "failed to update cart")
		return
	}
	common.JSONData(w, http.StatusOK, cartView{Cart: state.Cart, AppliedCoupon: state.AppliedCoupon})
}

// Merge handles POST /api/cart/merge.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	req.Cart.Normalize()
	state, err := h.Svc.Merge(r.Context(), userID, req.Cart)
	if err != nil {
		h.writeError(w, err, "failed to merge cart")
		return
	}
	common.JSONData(w, http.StatusOK, cartView{Cart: state.Cart, AppliedCoupon: state.AppliedCoupon})
}

// ApplyCoupon handles POST /api/cart/coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	state, err := h.Svc.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		h.writeError(w, err, "failed to apply coupon")
		return
	}
	common.JSONData(w, http.StatusOK, cartView{Cart: state.Cart, AppliedCoupon: state.AppliedCoupon})
}

// RemoveCoupon handles DELETE /api/cart/coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	state, err := h.Svc.RemoveCoupon(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "failed to remove coupon")
		return
	}
	common.JSONData(w, http.StatusOK, cartView{Cart: state.Cart, AppliedCoupon: state.AppliedCoupon})
}

// Total handles GET /api/cart/total.
func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	summary, applied, err := h.Svc.Total(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to price cart", nil)
		return
	}
	view := totalView{
		SubtotalMinor: summary.Subtotal,
		DiscountMinor: summary.Discount,
		ShippingMinor: summary.Shipping,
		TotalMinor:    summary.Total,
	}
	if applied != nil {
		view.CouponCode = &applied.Code
	}
	common.JSONData(w, http.StatusOK, view)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return uuid.Nil, false
	}
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrUnknownItem):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_ITEM", "product or size not found", nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, coupon.ErrExpired):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_EXPIRED", "coupon expired", nil)
	case errors.Is(err, coupon.ErrInactive):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INACTIVE", "coupon inactive", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
