package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meadowline/backend-dairy/internal/coupon"
	"github.com/meadowline/backend-dairy/internal/events"
	"github.com/meadowline/backend-dairy/internal/obs"
	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

// Order lifecycle states for cash-on-delivery fulfilment.
const (
	StatusPlaced    = "placed"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"

	PaymentCOD = "cod"
)

var (
	// ErrEmptyCart marks a checkout attempt with nothing priceable in the cart.
	ErrEmptyCart = errors.New("order: cart is empty")
	// ErrInvalidAddress marks a delivery address missing required fields.
	ErrInvalidAddress = errors.New("order: invalid delivery address")
	// ErrInvalidTransition marks a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("order: invalid status transition")
	// ErrNotFound marks an order the caller may not see or that does not exist.
	ErrNotFound = errors.New("order: not found")
)

var allowedTransitions = map[string][]string{
	StatusPlaced:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// Querier captures the store methods checkout and order management need.
type Querier interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
	UpdateUserCart(ctx context.Context, id uuid.UUID, cart pricing.Cart, appliedCoupon *string) (store.User, error)
	ListProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]store.Product, error)
	CreateOrder(ctx context.Context, p store.CreateOrderParams) (store.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (store.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Order, error)
	ListOrders(ctx context.Context, status string, limit, offset int) ([]store.Order, error)
	CountOrders(ctx context.Context, status string) (int64, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (store.Order, error)
}

// CouponSource resolves coupon codes into evaluation rules.
type CouponSource interface {
	Resolve(ctx context.Context, code string) (pricing.Coupon, error)
}

// Service prices the stored cart, snapshots it into an order row, and manages
// the order lifecycle. Checkout runs inside a transaction when RunTx is set.
type Service struct {
	Q           Querier
	RunTx       func(ctx context.Context, fn func(q Querier) error) error
	Coupons     CouponSource
	Bus         *events.Bus
	Metrics     *obs.ShopMetrics
	ShippingFee pricing.Money
	Log         zerolog.Logger
}

func (s *Service) runTx(ctx context.Context, fn func(q Querier) error) error {
	if s.RunTx != nil {
		return s.RunTx(ctx, fn)
	}
	return fn(s.Q)
}

// Place checks out the user's stored cart as a cash-on-delivery order. The
// cart and any applied coupon are cleared once the order row exists.
func (s *Service) Place(ctx context.Context, userID uuid.UUID, address store.OrderAddress) (store.Order, error) {
	if s == nil {
		return store.Order{}, errors.New("order service not configured")
	}
	if err := validateAddress(address); err != nil {
		return store.Order{}, err
	}

	var placed store.Order
	var buyer store.User
	err := s.runTx(ctx, func(q Querier) error {
		user, err := q.GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		buyer = user

		cart := user.CartData.Normalize()
		if cart.IsEmpty() {
			return ErrEmptyCart
		}

		catalog, names, err := s.loadCatalog(ctx, q, cart)
		if err != nil {
			return err
		}

		applied := s.resolveStoredCoupon(ctx, user.AppliedCoupon)
		summary := pricing.Total(cart, catalog, applied, s.ShippingFee)

		items := snapshotItems(cart, catalog, names)
		if len(items) == 0 {
			return ErrEmptyCart
		}

		var couponCode *string
		if applied != nil {
			couponCode = &applied.Code
		}
		placed, err = q.CreateOrder(ctx, store.CreateOrderParams{
			UserID:        userID,
			Items:         items,
			SubtotalMinor: summary.Subtotal,
			DiscountMinor: summary.Discount,
			ShippingMinor: summary.Shipping,
			TotalMinor:    summary.Total,
			CouponCode:    couponCode,
			PaymentMethod: PaymentCOD,
			Address:       address,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if _, err := q.UpdateUserCart(ctx, userID, pricing.NewCart(), nil); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Order{}, err
	}

	s.afterPlace(ctx, placed, buyer)
	return placed, nil
}

func (s *Service) afterPlace(ctx context.Context, placed store.Order, buyer store.User) {
	if s.Bus != nil {
		payload := map[string]any{
			"order_id":    placed.ID.String(),
			"user_id":     placed.UserID.String(),
			"name":        buyer.Name,
			"total_minor": placed.TotalMinor,
		}
		if buyer.Email != nil {
			payload["email"] = *buyer.Email
		}
		if placed.CouponCode != nil {
			payload["coupon_code"] = *placed.CouponCode
		}
		if err := s.Bus.Emit(ctx, events.TopicOrderPlaced, payload); err != nil {
			s.Log.Error().Err(err).Str("order_id", placed.ID.String()).Msg("emit order placed event")
		}
	}
	if s.Metrics != nil {
		s.Metrics.OrdersPlaced.Inc()
		if placed.DiscountMinor > 0 {
			s.Metrics.DiscountTotal.Add(float64(placed.DiscountMinor))
		}
		if placed.CouponCode != nil {
			s.Metrics.CouponsApplied.WithLabelValues(*placed.CouponCode).Inc()
		}
	}
}

// loadCatalog fetches the products referenced by the cart and builds the
// pricing catalog plus a product-name lookup for item snapshots.
func (s *Service) loadCatalog(ctx context.Context, q Querier, cart pricing.Cart) (pricing.Catalog, map[string]string, error) {
	ids := make([]uuid.UUID, 0, len(cart))
	for productID := range cart {
		id, err := uuid.Parse(productID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows, err := q.ListProductsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load cart products: %w", err)
	}

	products := make([]pricing.Product, 0, len(rows))
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		variants := make([]pricing.Variant, 0, len(row.Variants))
		for _, v := range row.Variants {
			variants = append(variants, pricing.Variant{Size: v.Size, Price: v.PriceMinor})
		}
		products = append(products, pricing.Product{ID: row.ID.String(), Variants: variants})
		names[row.ID.String()] = row.Name
	}
	return pricing.NewCatalog(products), names, nil
}

// resolveStoredCoupon turns the persisted code into a rule, treating codes
// that have since expired, been deactivated, or deleted as absent.
func (s *Service) resolveStoredCoupon(ctx context.Context, code *string) *pricing.Coupon {
	if code == nil || s.Coupons == nil {
		return nil
	}
	rule, err := s.Coupons.Resolve(ctx, *code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) || errors.Is(err, coupon.ErrExpired) || errors.Is(err, coupon.ErrInactive) {
			return nil
		}
		s.Log.Error().Err(err).Str("code", *code).Msg("resolve stored coupon")
		return nil
	}
	return &rule
}

// snapshotItems freezes resolvable cart lines into order items with the
// prices in effect at checkout. Unresolvable lines are dropped.
func snapshotItems(cart pricing.Cart, catalog pricing.Catalog, names map[string]string) []store.OrderItem {
	items := make([]store.OrderItem, 0, len(cart))
	for productID, sizes := range cart {
		product, ok := catalog[productID]
		if !ok {
			continue
		}
		for size, qty := range sizes {
			price, ok := product.VariantPrice(size)
			if !ok || qty <= 0 {
				continue
			}
			items = append(items, store.OrderItem{
				ProductID:      productID,
				Name:           names[productID],
				Size:           size,
				Quantity:       qty,
				UnitPriceMinor: price,
				LineTotalMinor: price * pricing.Money(qty),
			})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].Size < items[j].Size
	})
	return items
}

// Get returns a single order, restricted to its owner unless admin is set.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, admin bool) (store.Order, error) {
	row, err := s.Q.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Order{}, ErrNotFound
	}
	if err != nil {
		return store.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !admin && row.UserID != userID {
		return store.Order{}, ErrNotFound
	}
	return row, nil
}

// ListMine returns the user's orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, page, perPage int) ([]store.Order, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.Q.ListOrdersByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rows, nil
}

// List returns orders across all users with an optional status filter.
func (s *Service) List(ctx context.Context, status string, page, perPage int) ([]store.Order, int64, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.Q.ListOrders(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.Q.CountOrders(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return rows, total, nil
}

// UpdateStatus advances an order through the fulfilment lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (store.Order, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	current, err := s.Q.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Order{}, ErrNotFound
	}
	if err != nil {
		return store.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !transitionAllowed(current.Status, status) {
		return store.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
	}
	updated, err := s.Q.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return store.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if s.Bus != nil {
		payload := map[string]any{
			"order_id": updated.ID.String(),
			"from":     current.Status,
			"to":       updated.Status,
		}
		if err := s.Bus.Emit(ctx, events.TopicOrderStatusChanged, payload); err != nil {
			s.Log.Error().Err(err).Str("order_id", updated.ID.String()).Msg("emit order status event")
		}
	}
	return updated, nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validateAddress(a store.OrderAddress) error {
	if strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "" {
		return ErrInvalidAddress
	}
	if strings.TrimSpace(a.Postcode) == "" || strings.TrimSpace(a.Phone) == "" {
		return ErrInvalidAddress
	}
	return nil
}
