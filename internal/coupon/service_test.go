package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

type stubQueries struct {
	coupon  store.Coupon
	missing bool
}

func (s *stubQueries) GetCouponByID(ctx context.Context, id uuid.UUID) (store.Coupon, error) {
	if s.missing {
		return store.Coupon{}, store.ErrNotFound
	}
	return s.coupon, nil
}

func (s *stubQueries) GetCouponByCode(ctx context.Context, code string) (store.Coupon, error) {
	if s.missing {
		return store.Coupon{}, store.ErrNotFound
	}
	return s.coupon, nil
}

func (s *stubQueries) ListCoupons(ctx context.Context) ([]store.Coupon, error) {
	return []store.Coupon{s.coupon}, nil
}

func (s *stubQueries) ListActiveCoupons(ctx context.Context) ([]store.Coupon, error) {
	return []store.Coupon{s.coupon}, nil
}

func (s *stubQueries) CreateCoupon(ctx context.Context, p store.CreateCouponParams) (store.Coupon, error) {
	return store.Coupon{Code: p.Code, PercentBps: p.PercentBps, Scope: p.Scope, Active: p.Active}, nil
}

func (s *stubQueries) UpdateCoupon(ctx context.Context, id uuid.UUID, p store.CreateCouponParams) (store.Coupon, error) {
	if s.missing {
		return store.Coupon{}, store.ErrNotFound
	}
	return store.Coupon{ID: id, Code: p.Code, PercentBps: p.PercentBps, Scope: p.Scope, Active: p.Active}, nil
}

func (s *stubQueries) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	if s.missing {
		return store.ErrNotFound
	}
	return nil
}

func newCoupon(active bool, expiresAt *time.Time) store.Coupon {
	return store.Coupon{
		ID:         uuid.New(),
		Code:       "MILK10",
		PercentBps: 1000,
		Scope:      "cart",
		Active:     active,
		ExpiresAt:  expiresAt,
	}
}

func TestResolve(t *testing.T) {
	svc := &Service{Q: &stubQueries{coupon: newCoupon(true, nil)}}
	rule, err := svc.Resolve(context.Background(), "milk10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Code != "MILK10" || rule.PercentBps != 1000 {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestResolveMissing(t *testing.T) {
	svc := &Service{Q: &stubQueries{missing: true}}
	_, err := svc.Resolve(context.Background(), "NOPE")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	svc := &Service{Q: &stubQueries{coupon: newCoupon(true, &past)}}
	_, err := svc.Resolve(context.Background(), "MILK10")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestResolveInactive(t *testing.T) {
	svc := &Service{Q: &stubQueries{coupon: newCoupon(false, nil)}}
	_, err := svc.Resolve(context.Background(), "MILK10")
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := &Service{Q: &stubQueries{}}
	_, err := svc.Create(context.Background(), store.CreateCouponParams{Code: " ", PercentBps: 1000})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank code, got %v", err)
	}
	_, err = svc.Create(context.Background(), store.CreateCouponParams{Code: "X", PercentBps: 20000})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for out-of-range percent, got %v", err)
	}
	created, err := svc.Create(context.Background(), store.CreateCouponParams{Code: " fresh5 ", PercentBps: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Code != "FRESH5" {
		t.Fatalf("expected uppercased code, got %q", created.Code)
	}
	if created.Scope != "cart" {
		t.Fatalf("expected default cart scope, got %q", created.Scope)
	}
}

func TestSimulate(t *testing.T) {
	svc := &Service{Q: &stubQueries{coupon: newCoupon(true, nil)}}
	sim, err := svc.Simulate(context.Background(), "MILK10", pricing.Money(5000), 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.TotalDiscount != 1500 || sim.TotalAfter != 13500 {
		t.Fatalf("unexpected simulation: %+v", sim)
	}
}

func TestSimulateRejectsBadInput(t *testing.T) {
	svc := &Service{Q: &stubQueries{coupon: newCoupon(true, nil)}}
	_, err := svc.Simulate(context.Background(), "MILK10", pricing.Money(5000), 0, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
