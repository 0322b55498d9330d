package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/pricing"
)

// User is a storefront account. Email/password accounts and phone/OTP
// accounts share the table; unused identity columns stay NULL.
type User struct {
	ID            uuid.UUID
	Name          string
	Email         *string
	Phone         *string
	PasswordHash  *string
	Role          string
	CartData      pricing.Cart
	AppliedCoupon *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session is a refresh-token session row.
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RefreshTokenHash string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
}

// ProductVariant is a purchasable size of a product. Prices are minor units.
type ProductVariant struct {
	Size       string `json:"size"`
	PriceMinor int64  `json:"price_minor"`
}

// Product is a catalog row. Variants and image URLs live in jsonb columns.
type Product struct {
	ID            uuid.UUID
	Name          string
	Slug          string
	Description   string
	Category      string
	ImageURLs     []string
	Variants      []ProductVariant
	UnitCostMinor *int64
	InStock       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Coupon is a discount definition. The percentage is stored as basis points.
type Coupon struct {
	ID         uuid.UUID
	Code       string
	PercentBps int32
	Scope      string
	Active     bool
	ExpiresAt  *time.Time
	AppliesTo  []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is one priced line captured at checkout time.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

// OrderAddress is the delivery address snapshot stored with the order.
type OrderAddress struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Phone    string `json:"phone"`
}

// Order is a placed order with its pricing snapshot.
type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Items         []OrderItem
	SubtotalMinor int64
	DiscountMinor int64
	ShippingMinor int64
	TotalMinor    int64
	CouponCode    *string
	Status        string
	PaymentMethod string
	Address       OrderAddress
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contact is a message submitted through the contact form.
type Contact struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Message   string
	CreatedAt time.Time
}

// Testimonial is a customer review pending or approved for display.
type Testimonial struct {
	ID        uuid.UUID
	Name      string
	Message   string
	Rating    int
	Approved  bool
	CreatedAt time.Time
}

// Event is a persisted domain event.
type Event struct {
	ID        int64
	Topic     string
	Payload   []byte
	CreatedAt time.Time
}
