package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const testimonialColumns = `id, name, message, rating, approved, created_at`

const (
	createTestimonialSQL = `INSERT INTO testimonials (name, message, rating)
		VALUES ($1, $2, $3)
		RETURNING ` + testimonialColumns

	listApprovedTestimonialsSQL = `SELECT ` + testimonialColumns + ` FROM testimonials
		WHERE approved = TRUE ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	listTestimonialsSQL = `SELECT ` + testimonialColumns + ` FROM testimonials
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	approveTestimonialSQL = `UPDATE testimonials SET approved = TRUE WHERE id = $1
		RETURNING ` + testimonialColumns

	deleteTestimonialSQL = `DELETE FROM testimonials WHERE id = $1`
)

// CreateTestimonial stores a review awaiting approval.
func (q *Queries) CreateTestimonial(ctx context.Context, name, message string, rating int) (Testimonial, error) {
	rows, err := q.db.Query(ctx, createTestimonialSQL, name, message, rating)
	if err != nil {
		return Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTestimonial)
	if err != nil {
		return Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}
	return t, nil
}

// ListTestimonials returns a page of reviews; approvedOnly hides pending ones.
func (q *Queries) ListTestimonials(ctx context.Context, approvedOnly bool, limit, offset int) ([]Testimonial, error) {
	sql := listTestimonialsSQL
	if approvedOnly {
		sql = listApprovedTestimonialsSQL
	}
	rows, err := q.db.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	testimonials, err := pgx.CollectRows(rows, scanTestimonial)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return testimonials, nil
}

// ApproveTestimonial marks a review visible on the storefront.
func (q *Queries) ApproveTestimonial(ctx context.Context, id uuid.UUID) (Testimonial, error) {
	rows, err := q.db.Query(ctx, approveTestimonialSQL, id)
	if err != nil {
		return Testimonial{}, fmt.Errorf("approve testimonial: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTestimonial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Testimonial{}, ErrNotFound
		}
		return Testimonial{}, fmt.Errorf("approve testimonial: %w", err)
	}
	return t, nil
}

// DeleteTestimonial removes a review.
func (q *Queries) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteTestimonialSQL, id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTestimonial(row pgx.CollectableRow) (Testimonial, error) {
	var t Testimonial
	err := row.Scan(&t.ID, &t.Name, &t.Message, &t.Rating, &t.Approved, &t.CreatedAt)
	return t, err
}
