package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/coupon"
	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

type stubStore struct {
	user store.User
}

func (s *stubStore) GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	return s.user, nil
}

func (s *stubStore) UpdateUserCart(ctx context.Context, id uuid.UUID, cart pricing.Cart, appliedCoupon *string) (store.User, error) {
	s.user.CartData = cart
	s.user.AppliedCoupon = appliedCoupon
	return s.user, nil
}

type stubCatalog struct {
	catalog pricing.Catalog
}

func (s *stubCatalog) PricingCatalog(ctx context.Context) (pricing.Catalog, error) {
	return s.catalog, nil
}

type stubCoupons struct {
	rules map[string]pricing.Coupon
	err   error
}

func (s *stubCoupons) Resolve(ctx context.Context, code string) (pricing.Coupon, error) {
	if s.err != nil {
		return pricing.Coupon{}, s.err
	}
	rule, ok := s.rules[code]
	if !ok {
		return pricing.Coupon{}, coupon.ErrNotFound
	}
	return rule, nil
}

func newService(rules map[string]pricing.Coupon) (*Service, *stubStore) {
	st := &stubStore{user: store.User{ID: uuid.New(), CartData: pricing.NewCart()}}
	catalog := pricing.NewCatalog([]pricing.Product{
		{ID: "p1", Variants: []pricing.Variant{{Size: "500ml", Price: 5000}}},
	})
	return &Service{
		Q:           st,
		Catalog:     &stubCatalog{catalog: catalog},
		Coupons:     &stubCoupons{rules: rules},
		ShippingFee: 1000,
	}, st
}

func TestAddRejectsUnknownItem(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.Add(context.Background(), uuid.New(), "p1", "2L", 1)
	if !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
	_, err = svc.Add(context.Background(), uuid.New(), "missing", "500ml", 1)
	if !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestAddAccumulates(t *testing.T) {
	svc, _ := newService(nil)
	userID := uuid.New()
	if _, err := svc.Add(context.Background(), userID, "p1", "500ml", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := svc.Add(context.Background(), userID, "p1", "500ml", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := state.Cart.Quantity("p1", "500ml"); got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	svc, _ := newService(nil)
	userID := uuid.New()
	if _, err := svc.Add(context.Background(), userID, "p1", "500ml", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := svc.SetQuantity(context.Background(), userID, "p1", "500ml", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.Cart.IsEmpty() {
		t.Fatal("expected empty cart")
	}
}

func TestTotalWithCoupon(t *testing.T) {
	rules := map[string]pricing.Coupon{
		"MILK10": {Code: "MILK10", PercentBps: 1000, Scope: pricing.ScopeCart, Active: true},
	}
	svc, _ := newService(rules)
	userID := uuid.New()
	if _, err := svc.Add(context.Background(), userID, "p1", "500ml", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ApplyCoupon(context.Background(), userID, "MILK10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, applied, err := svc.Total(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied == nil || applied.Code != "MILK10" {
		t.Fatalf("expected applied coupon, got %+v", applied)
	}
	if summary.Subtotal != 15000 || summary.Discount != 1500 || summary.Shipping != 1000 || summary.Total != 14500 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTotalIgnoresDeadCoupon(t *testing.T) {
	svc, st := newService(nil)
	userID := uuid.New()
	if _, err := svc.Add(context.Background(), userID, "p1", "500ml", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gone := "GONE"
	st.user.AppliedCoupon = &gone
	summary, applied, err := svc.Total(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != nil {
		t.Fatalf("expected no applied coupon, got %+v", applied)
	}
	if summary.Discount != 0 {
		t.Fatalf("expected zero discount, got %d", summary.Discount)
	}
}

func TestTotalEmptyCartSkipsShipping(t *testing.T) {
	svc, _ := newService(nil)
	summary, _, err := svc.Total(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Shipping != 0 || summary.Total != 0 {
		t.Fatalf("expected zero shipping and total, got %+v", summary)
	}
}

func TestMerge(t *testing.T) {
	svc, _ := newService(nil)
	userID := uuid.New()
	if _, err := svc.Add(context.Background(), userID, "p1", "500ml", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	guest := pricing.Cart{"p1": {"500ml": 2}}
	state, err := svc.Merge(context.Background(), userID, guest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := state.Cart.Quantity("p1", "500ml"); got != 3 {
		t.Fatalf("expected merged quantity 3, got %d", got)
	}
}
