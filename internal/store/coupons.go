package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const couponColumns = `id, code, percent_bps, scope, active, expires_at, applies_to, created_at, updated_at`

const (
	createCouponSQL = `INSERT INTO coupons (code, percent_bps, scope, active, expires_at, applies_to)
		VALUES (upper($1), $2, $3, $4, $5, $6)
		RETURNING ` + couponColumns

	updateCouponSQL = `UPDATE coupons SET
			code = upper($2), percent_bps = $3, scope = $4, active = $5,
			expires_at = $6, applies_to = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + couponColumns

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	getCouponByIDSQL   = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE upper(code) = upper($1)`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	listActiveCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE active = TRUE AND (expires_at IS NULL OR expires_at > now())
		ORDER BY code`
)

// CreateCouponParams carries the inputs for CreateCoupon and UpdateCoupon.
type CreateCouponParams struct {
	Code       string
	PercentBps int32
	Scope      string
	Active     bool
	ExpiresAt  *time.Time
	AppliesTo  []string
}

// CreateCoupon inserts a coupon; codes are stored uppercased.
func (q *Queries) CreateCoupon(ctx context.Context, p CreateCouponParams) (Coupon, error) {
	rows, err := q.db.Query(ctx, createCouponSQL, p.Code, p.PercentBps, p.Scope, p.Active, p.ExpiresAt, p.AppliesTo)
	if err != nil {
		return Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return collectCoupon(rows, "create coupon")
}

// UpdateCoupon replaces a coupon row.
func (q *Queries) UpdateCoupon(ctx context.Context, id uuid.UUID, p CreateCouponParams) (Coupon, error) {
	rows, err := q.db.Query(ctx, updateCouponSQL, id, p.Code, p.PercentBps, p.Scope, p.Active, p.ExpiresAt, p.AppliesTo)
	if err != nil {
		return Coupon{}, fmt.Errorf("update coupon: %w", err)
	}
	return collectCoupon(rows, "update coupon")
}

// DeleteCoupon removes a coupon row.
func (q *Queries) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCouponByID fetches one coupon.
func (q *Queries) GetCouponByID(ctx context.Context, id uuid.UUID) (Coupon, error) {
	rows, err := q.db.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return Coupon{}, fmt.Errorf("get coupon: %w", err)
	}
	return collectCoupon(rows, "get coupon")
}

// GetCouponByCode fetches one coupon by code, case-insensitively.
func (q *Queries) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	rows, err := q.db.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return Coupon{}, fmt.Errorf("get coupon by code: %w", err)
	}
	return collectCoupon(rows, "get coupon by code")
}

// ListCoupons returns every coupon, newest first.
func (q *Queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// ListActiveCoupons returns coupons that are active and not past expiry.
func (q *Queries) ListActiveCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listActiveCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	return coupons, nil
}

func collectCoupon(rows pgx.Rows, op string) (Coupon, error) {
	coupon, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("%s: %w", op, err)
	}
	return coupon, nil
}

func scanCoupon(row pgx.CollectableRow) (Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.PercentBps, &c.Scope, &c.Active,
		&c.ExpiresAt, &c.AppliesTo, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
