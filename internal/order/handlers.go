package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/auth"
	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/store"
)

// Handler exposes checkout and order management endpoints.
type Handler struct {
	Svc *Service
}

type placeRequest struct {
	Address store.OrderAddress `json:"address"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type orderView struct {
	ID            string             `json:"id"`
	Items         []store.OrderItem  `json:"items"`
	SubtotalMinor int64              `json:"subtotal_minor"`
	DiscountMinor int64              `json:"discount_minor"`
	ShippingMinor int64              `json:"shipping_minor"`
	TotalMinor    int64              `json:"total_minor"`
	CouponCode    *string            `json:"coupon_code,omitempty"`
	Status        string             `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	Address       store.OrderAddress `json:"address"`
	CreatedAt     string             `json:"created_at"`
}

func toView(row store.Order) orderView {
	return orderView{
		ID:            row.ID.String(),
		Items:         row.Items,
		SubtotalMinor: row.SubtotalMinor,
		DiscountMinor: row.DiscountMinor,
		ShippingMinor: row.ShippingMinor,
		TotalMinor:    row.TotalMinor,
		CouponCode:    row.CouponCode,
		Status:        row.Status,
		PaymentMethod: row.PaymentMethod,
		Address:       row.Address,
		CreatedAt:     row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toViews(rows []store.Order) []orderView {
	out := make([]orderView, 0, len(rows))
	for _, row := range rows {
		out = append(out, toView(row))
	}
	return out
}

// Place handles POST /api/orders.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	placed, err := h.Svc.Place(r.Context(), userID, req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, toView(placed))
}

// ListMine handles GET /api/orders.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Svc.ListMine(r.Context(), userID, page, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toViews(rows))
}

// Get handles GET /api/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	role, _ := common.Role(r.Context())
	row, err := h.Svc.Get(r.Context(), userID, orderID, role == auth.RoleAdmin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toView(row))
}

// AdminList handles GET /api/admin/orders.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	status := r.URL.Query().Get("status")
	rows, total, err := h.Svc.List(r.Context(), status, page, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": toViews(rows),
		"meta": map[string]any{"page": page, "per_page": perPage, "total": total},
	})
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	updated, err := h.Svc.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toView(updated))
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has nothing to check out", nil)
	case errors.Is(err, ErrInvalidAddress):
		common.JSONError(w, http.StatusBadRequest, "INVALID_ADDRESS", "delivery address is incomplete", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_STATUS", "status change is not allowed", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
