package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, user_id, items, subtotal_minor, discount_minor, shipping_minor, total_minor,
	coupon_code, status, payment_method, address, created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders
			(user_id, items, subtotal_minor, discount_minor, shipping_minor, total_minor, coupon_code, payment_method, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + orderColumns

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	countOrdersSQL = `SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns
)

// CreateOrderParams carries the pricing snapshot captured at checkout.
type CreateOrderParams struct {
	UserID        uuid.UUID
	Items         []OrderItem
	SubtotalMinor int64
	DiscountMinor int64
	ShippingMinor int64
	TotalMinor    int64
	CouponCode    *string
	PaymentMethod string
	Address       OrderAddress
}

// CreateOrder inserts an order row.
func (q *Queries) CreateOrder(ctx context.Context, p CreateOrderParams) (Order, error) {
	rows, err := q.db.Query(ctx, createOrderSQL,
		p.UserID, p.Items, p.SubtotalMinor, p.DiscountMinor, p.ShippingMinor, p.TotalMinor,
		p.CouponCode, p.PaymentMethod, p.Address)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return collectOrder(rows, "create order")
}

// GetOrderByID fetches one order.
func (q *Queries) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	rows, err := q.db.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return collectOrder(rows, "get order")
}

// ListOrdersByUser returns a page of the user's orders, newest first.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUserSQL, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	return orders, nil
}

// ListOrders returns a page of all orders, optionally filtered by status.
func (q *Queries) ListOrders(ctx context.Context, status string, limit, offset int) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersSQL, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CountOrders returns the total number of orders matching the status filter.
func (q *Queries) CountOrders(ctx context.Context, status string) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, countOrdersSQL, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// UpdateOrderStatus transitions an order to a new status.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (Order, error) {
	rows, err := q.db.Query(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	return collectOrder(rows, "update order status")
}

func collectOrder(rows pgx.Rows, op string) (Order, error) {
	order, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func scanOrder(row pgx.CollectableRow) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Items, &o.SubtotalMinor, &o.DiscountMinor, &o.ShippingMinor, &o.TotalMinor,
		&o.CouponCode, &o.Status, &o.PaymentMethod, &o.Address, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
