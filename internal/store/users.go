package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meadowline/backend-dairy/internal/pricing"
)

const userColumns = `id, name, email, phone, password_hash, role, cart_data, applied_coupon, created_at, updated_at`

const (
	createUserSQL = `INSERT INTO users (name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	getUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	getUserByPhoneSQL = `SELECT ` + userColumns + ` FROM users WHERE phone = $1`

	updateUserCartSQL = `UPDATE users SET cart_data = $2, applied_coupon = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	updateUserPasswordSQL = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	countUsersByRoleSQL = `SELECT count(*) FROM users WHERE role = $1`
)

// CreateUserParams carries the inputs for CreateUser.
type CreateUserParams struct {
	Name         string
	Email        *string
	Phone        *string
	PasswordHash *string
	Role         string
}

// CreateUser inserts a new account row.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	rows, err := q.db.Query(ctx, createUserSQL, p.Name, p.Email, p.Phone, p.PasswordHash, p.Role)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return collectUser(rows, "create user")
}

// GetUserByID fetches one user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	rows, err := q.db.Query(ctx, getUserByIDSQL, id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return collectUser(rows, "get user")
}

// GetUserByEmail fetches one user by email, case-insensitively.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	rows, err := q.db.Query(ctx, getUserByEmailSQL, email)
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return collectUser(rows, "get user by email")
}

// GetUserByPhone fetches one user by phone number.
func (q *Queries) GetUserByPhone(ctx context.Context, phone string) (User, error) {
	rows, err := q.db.Query(ctx, getUserByPhoneSQL, phone)
	if err != nil {
		return User{}, fmt.Errorf("get user by phone: %w", err)
	}
	return collectUser(rows, "get user by phone")
}

// UpdateUserCart replaces the stored cart and applied coupon for a user.
func (q *Queries) UpdateUserCart(ctx context.Context, id uuid.UUID, cart pricing.Cart, appliedCoupon *string) (User, error) {
	rows, err := q.db.Query(ctx, updateUserCartSQL, id, cart, appliedCoupon)
	if err != nil {
		return User{}, fmt.Errorf("update user cart: %w", err)
	}
	return collectUser(rows, "update user cart")
}

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := q.db.Exec(ctx, updateUserPasswordSQL, id, hash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsersByRole returns how many accounts carry the given role.
func (q *Queries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, countUsersByRoleSQL, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return count, nil
}

func collectUser(rows pgx.Rows, op string) (User, error) {
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.CartData, &u.AppliedCoupon, &u.CreatedAt, &u.UpdatedAt,
	)
	if u.CartData == nil {
		u.CartData = pricing.NewCart()
	}
	return u, err
}
