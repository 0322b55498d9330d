package pricing

import (
	"math"
	"strings"
	"time"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// CouponScope determines which part of the cart a coupon discounts.
type CouponScope string

const (
	// ScopeCart applies the discount percentage to the whole order subtotal.
	ScopeCart CouponScope = "cart"
	// ScopeProduct applies the discount percentage to each line independently.
	ScopeProduct CouponScope = "product"
)

// Variant is a purchasable size/price option of a product.
type Variant struct {
	Size  string
	Price Money
}

// Product holds the variant price list the engine resolves cart lines against.
type Product struct {
	ID       string
	Variants []Variant
}

// VariantPrice returns the price for the given size and whether it exists.
func (p Product) VariantPrice(size string) (Money, bool) {
	for _, v := range p.Variants {
		if v.Size == size {
			return v.Price, true
		}
	}
	return 0, false
}

// Catalog indexes products by identifier for cart resolution.
type Catalog map[string]Product

// NewCatalog builds a Catalog from a product slice.
func NewCatalog(products []Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}

// Coupon is a snapshot of a discount rule. PercentBps stores the discount
// percentage in basis points (10% == 1000).
type Coupon struct {
	Code       string
	PercentBps int32
	Scope      CouponScope
	Active     bool
	ExpiresAt  *time.Time
}

// Eligible reports whether the coupon may be applied at the provided instant:
// it must be active and its expiry, when set, strictly in the future.
func (c Coupon) Eligible(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// Summary aggregates the computed pricing components for checkout display.
type Summary struct {
	Subtotal Money
	Discount Money
	Shipping Money
	Total    Money
}

// CartAmount sums variant price times quantity over every resolvable cart
// line. Lines referencing an unknown product or size contribute nothing:
// the caller must always receive a total for the resolvable subset, so
// unresolvable lines are skipped rather than reported.
func CartAmount(cart Cart, catalog Catalog) Money {
	var total Money
	for productID, sizes := range cart {
		product, ok := catalog[productID]
		if !ok {
			continue
		}
		for size, qty := range sizes {
			if qty <= 0 {
				continue
			}
			price, ok := product.VariantPrice(size)
			if !ok {
				continue
			}
			total += price * Money(qty)
		}
	}
	return total
}

// Discount computes the coupon discount for the cart. A nil coupon yields 0.
// Cart-scoped coupons take a percentage of the supplied subtotal.
// Product-scoped coupons re-walk the cart and discount each resolvable line
// independently; the subtotal argument is deliberately not reused there, so
// the result stays correct even when the caller derived subtotal under a
// different rounding policy.
func Discount(subtotal Money, cart Cart, catalog Catalog, coupon *Coupon) Money {
	if coupon == nil {
		return 0
	}
	if coupon.Scope != ScopeProduct {
		return subtotal * Money(coupon.PercentBps) / 10000
	}
	var discount Money
	for productID, sizes := range cart {
		product, ok := catalog[productID]
		if !ok {
			continue
		}
		for size, qty := range sizes {
			if qty <= 0 {
				continue
			}
			price, ok := product.VariantPrice(size)
			if !ok {
				continue
			}
			discount += price * Money(qty) * Money(coupon.PercentBps) / 10000
		}
	}
	return discount
}

// Total computes the full checkout breakdown. No delivery fee is charged on
// an empty cart. The total is not floored: with percentages confined to
// [0,100] the discount can never exceed the subtotal, so a negative total
// is unreachable under valid input.
func Total(cart Cart, catalog Catalog, coupon *Coupon, shippingFee Money) Summary {
	subtotal := CartAmount(cart, catalog)
	discount := Discount(subtotal, cart, catalog, coupon)
	var shipping Money
	if subtotal > 0 {
		shipping = shippingFee
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Total:    subtotal - discount + shipping,
	}
}

// FindEligible resolves a user-supplied code against the coupon list. The
// code is trimmed and matched case-insensitively. Coupons that are inactive
// or expired are never returned, even on an exact code match; the caller
// turns a nil result into its own "invalid or expired" message.
func FindEligible(code string, coupons []Coupon, now time.Time) *Coupon {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil
	}
	for _, c := range coupons {
		if strings.ToUpper(c.Code) != normalized {
			continue
		}
		if !c.Eligible(now) {
			continue
		}
		snapshot := c
		return &snapshot
	}
	return nil
}

// BpsFromPercent converts a percentage in [0,100] to basis points, rounding
// to the nearest point.
func BpsFromPercent(percent float64) int32 {
	return int32(math.Round(percent * 100))
}

// PercentFromBps converts basis points back to a display percentage.
func PercentFromBps(bps int32) float64 {
	return float64(bps) / 100
}
