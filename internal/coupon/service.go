package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

// Sentinel errors surfaced to the handler layer.
var (
	ErrNotFound     = errors.New("coupon not found")
	ErrExpired      = errors.New("coupon expired")
	ErrInactive     = errors.New("coupon inactive")
	ErrInvalidInput = errors.New("invalid coupon input")
)

// Querier captures the database methods required by the coupon service.
type Querier interface {
	GetCouponByID(ctx context.Context, id uuid.UUID) (store.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (store.Coupon, error)
	ListCoupons(ctx context.Context) ([]store.Coupon, error)
	ListActiveCoupons(ctx context.Context) ([]store.Coupon, error)
	CreateCoupon(ctx context.Context, p store.CreateCouponParams) (store.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, p store.CreateCouponParams) (store.Coupon, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
}

// Service encapsulates coupon lookup, management and simulation behaviour.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Resolve fetches a coupon by code and verifies it can currently be applied.
func (s *Service) Resolve(ctx context.Context, code string) (pricing.Coupon, error) {
	if s == nil || s.Q == nil {
		return pricing.Coupon{}, errors.New("coupon service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return pricing.Coupon{}, fmt.Errorf("code is required: %w", ErrInvalidInput)
	}
	row, err := s.Q.GetCouponByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pricing.Coupon{}, ErrNotFound
		}
		return pricing.Coupon{}, err
	}
	rule := ToRule(row)
	if !row.Active {
		return pricing.Coupon{}, ErrInactive
	}
	if !rule.Eligible(s.now()) {
		return pricing.Coupon{}, ErrExpired
	}
	return rule, nil
}

// ListActive returns the coupons a customer may currently apply.
func (s *Service) ListActive(ctx context.Context) ([]store.Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.Q.ListActiveCoupons(ctx)
}

// List returns every coupon for administration.
func (s *Service) List(ctx context.Context) ([]store.Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.Q.ListCoupons(ctx)
}

// Create validates and inserts a coupon definition.
func (s *Service) Create(ctx context.Context, p store.CreateCouponParams) (store.Coupon, error) {
	if s == nil || s.Q == nil {
		return store.Coupon{}, errors.New("coupon service not configured")
	}
	if err := validateParams(&p); err != nil {
		return store.Coupon{}, err
	}
	return s.Q.CreateCoupon(ctx, p)
}

// Update validates and replaces a coupon definition.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p store.CreateCouponParams) (store.Coupon, error) {
	if s == nil || s.Q == nil {
		return store.Coupon{}, errors.New("coupon service not configured")
	}
	if err := validateParams(&p); err != nil {
		return store.Coupon{}, err
	}
	row, err := s.Q.UpdateCoupon(ctx, id, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Coupon{}, ErrNotFound
		}
		return store.Coupon{}, err
	}
	return row, nil
}

// Delete removes a coupon definition.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("coupon service not configured")
	}
	if err := s.Q.DeleteCoupon(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Simulate evaluates the impact of a coupon on a single product line without
// persisting anything.
func (s *Service) Simulate(ctx context.Context, code string, unitPrice pricing.Money, quantity int, unitCost *pricing.Money) (pricing.Simulation, error) {
	if s == nil || s.Q == nil {
		return pricing.Simulation{}, errors.New("coupon service not configured")
	}
	if unitPrice < 0 || quantity <= 0 {
		return pricing.Simulation{}, fmt.Errorf("price and quantity must be positive: %w", ErrInvalidInput)
	}
	row, err := s.Q.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pricing.Simulation{}, ErrNotFound
		}
		return pricing.Simulation{}, err
	}
	return pricing.Simulate(unitPrice, quantity, ToRule(row), unitCost), nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateParams(p *store.CreateCouponParams) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Code == "" {
		return fmt.Errorf("code is required: %w", ErrInvalidInput)
	}
	if p.PercentBps < 0 || p.PercentBps > 10000 {
		return fmt.Errorf("percent must be between 0 and 100: %w", ErrInvalidInput)
	}
	switch p.Scope {
	case "":
		p.Scope = "cart"
	case "cart", "product":
	default:
		return fmt.Errorf("scope must be cart or product: %w", ErrInvalidInput)
	}
	return nil
}

// ToRule converts a stored coupon into the evaluation form used by the engine.
func ToRule(row store.Coupon) pricing.Coupon {
	scope := pricing.ScopeCart
	if row.Scope == "product" {
		scope = pricing.ScopeProduct
	}
	return pricing.Coupon{
		Code:       row.Code,
		PercentBps: row.PercentBps,
		Scope:      scope,
		Active:     row.Active,
		ExpiresAt:  row.ExpiresAt,
	}
}
