package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/coupon"
	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnknownItem is returned when the product or size cannot be resolved.
var ErrUnknownItem = errors.New("unknown product or size")

// Querier captures the database methods required by the cart service.
type Querier interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
	UpdateUserCart(ctx context.Context, id uuid.UUID, cart pricing.Cart, appliedCoupon *string) (store.User, error)
}

// CatalogSource provides the pricing catalog the cart is evaluated against.
type CatalogSource interface {
	PricingCatalog(ctx context.Context) (pricing.Catalog, error)
}

// CouponSource resolves coupon codes into evaluation rules.
type CouponSource interface {
	Resolve(ctx context.Context, code string) (pricing.Coupon, error)
}

// Service encapsulates the per-account cart operations.
type Service struct {
	Q           Querier
	Catalog     CatalogSource
	Coupons     CouponSource
	ShippingFee pricing.Money
}

// State is the cart plus its applied coupon code, as stored.
type State struct {
	Cart          pricing.Cart
	AppliedCoupon *string
}

// Get loads the stored cart for a user.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (State, error) {
	if s == nil || s.Q == nil {
		return State{}, errors.New("cart service not configured")
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return State{Cart: user.CartData, AppliedCoupon: user.AppliedCoupon}, nil
}

// Add increments a cart line after verifying it resolves in the catalog.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, productID, size string, qty int) (State, error) {
	if s == nil || s.Q == nil || s.Catalog == nil {
		return State{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return State{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	catalog, err := s.Catalog.PricingCatalog(ctx)
	if err != nil {
		return State{}, err
	}
	product, ok := catalog[productID]
	if !ok {
		return State{}, ErrUnknownItem
	}
	if _, ok := product.VariantPrice(size); !ok {
		return State{}, ErrUnknownItem
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return State{}, err
	}
	next := user.CartData.Clone()
	next.Add(productID, size, qty)
	updated, err := s.Q.UpdateUserCart(ctx, userID, next, user.AppliedCoupon)
	if err != nil {
		return State{}, err
	}
	return State{Cart: updated.CartData, AppliedCoupon: updated.AppliedCoupon}, nil
}

// SetQuantity pins a cart line to an exact quantity; zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID uuid.UUID, productID, size string, qty int) (State, error) {
	if s == nil || s.Q == nil {
		return State{}, errors.New("cart service not configured")
	}
	if qty < 0 {
		return State{}, fmt.Errorf("qty must not be negative: %w", ErrInvalidInput)
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return State{}, err
	}
	next := user.CartData.Clone()
	next.SetQuantity(productID, size, qty)
	updated, err := s.Q.UpdateUserCart(ctx, userID, next, user.AppliedCoupon)
	if err != nil {
		return State{}, err
	}
	return State{Cart: updated.CartData, AppliedCoupon: updated.AppliedCoupon}, nil
}

// Merge folds a guest cart into the stored cart, typically right after login.
func (s *Service) Merge(ctx context.Context, userID uuid.UUID, guest pricing.Cart) (State, error) {
	if s == nil || s.Q == nil {
		return State{}, errors.New("cart service not configured")
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return State{}, err
	}
	next := user.CartData.Clone()
	for productID, sizes := range guest {
		for size, qty := range sizes {
			next.Add(productID, size, qty)
		}
	}
	updated, err := s.Q.UpdateUserCart(ctx, userID, next, user.AppliedCoupon)
	if err != nil {
		return State{}, err
	}
	return State{Cart: updated.CartData, AppliedCoupon: updated.AppliedCoupon}, nil
}

// ApplyCoupon records a coupon on the cart after checking it is live.
func (s *Service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (State, error) {
	if s == nil || s.Q == nil || s.Coupons == nil {
		return State{}, errors.New("cart service not configured")
	}
	rule, err := s.Coupons.Resolve(ctx, code)
	if err != nil {
		return State{}, err
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return State{}, err
	}
	updated, err := s.Q.UpdateUserCart(ctx, userID, user.CartData, &rule.Code)
	if err != nil {
		return State{}, err
	}
	return State{Cart: updated.CartData, AppliedCoupon: updated.AppliedCoupon}, nil
}

// RemoveCoupon clears any applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, userID uuid.UUID) (State, error) {
	if s == nil || s.Q == nil {
		return State{}, errors.New("cart service not configured")
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return State{}, err
	}
	updated, err := s.Q.UpdateUserCart(ctx, userID, user.CartData, nil)
	if err != nil {
		return State{}, err
	}
	return State{Cart: updated.CartData, AppliedCoupon: updated.AppliedCoupon}, nil
}

// Total prices the stored cart. A stored coupon that is no longer live is
// ignored rather than failing the whole computation.
func (s *Service) Total(ctx context.Context, userID uuid.UUID) (pricing.Summary, *pricing.Coupon, error) {
	if s == nil || s.Q == nil || s.Catalog == nil {
		return pricing.Summary{}, nil, errors.New("cart service not configured")
	}
	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	catalog, err := s.Catalog.PricingCatalog(ctx)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	var applied *pricing.Coupon
	if user.AppliedCoupon != nil && s.Coupons != nil {
		rule, err := s.Coupons.Resolve(ctx, *user.AppliedCoupon)
		if err == nil {
			applied = &rule
		} else if !errors.Is(err, coupon.ErrNotFound) && !errors.Is(err, coupon.ErrExpired) && !errors.Is(err, coupon.ErrInactive) {
			return pricing.Summary{}, nil, err
		}
	}
	summary := pricing.Total(user.CartData, catalog, applied, s.ShippingFee)
	return summary, applied, nil
}
