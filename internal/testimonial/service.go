package testimonial

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/store"
)

var (
	// ErrInvalidInput marks a testimonial that fails validation.
	ErrInvalidInput = errors.New("testimonial: invalid input")
	// ErrNotFound marks a missing testimonial.
	ErrNotFound = errors.New("testimonial: not found")
)

// Querier captures the store methods the testimonial service needs.
type Querier interface {
	CreateTestimonial(ctx context.Context, name, message string, rating int) (store.Testimonial, error)
	ListTestimonials(ctx context.Context, approvedOnly bool, limit, offset int) ([]store.Testimonial, error)
	ApproveTestimonial(ctx context.Context, id uuid.UUID) (store.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id uuid.UUID) error
}

// Submission is a customer review awaiting moderation.
type Submission struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Message string `json:"message" validate:"required,min=10,max=1000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// Service manages customer testimonials with admin moderation.
type Service struct {
	Q        Querier
	Validate *validator.Validate
}

func (s *Service) validate() *validator.Validate {
	if s.Validate != nil {
		return s.Validate
	}
	return validator.New()
}

// Submit records a new testimonial. It stays hidden until approved.
func (s *Service) Submit(ctx context.Context, sub Submission) (store.Testimonial, error) {
	if s == nil {
		return store.Testimonial{}, errors.New("testimonial service not configured")
	}
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Message = strings.TrimSpace(sub.Message)
	if err := s.validate().Struct(sub); err != nil {
		return store.Testimonial{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	row, err := s.Q.CreateTestimonial(ctx, sub.Name, sub.Message, sub.Rating)
	if err != nil {
		return store.Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}
	return row, nil
}

// ListApproved returns testimonials visible on the storefront.
func (s *Service) ListApproved(ctx context.Context, page, perPage int) ([]store.Testimonial, error) {
	return s.list(ctx, true, page, perPage)
}

// ListAll returns every testimonial for moderation.
func (s *Service) ListAll(ctx context.Context, page, perPage int) ([]store.Testimonial, error) {
	return s.list(ctx, false, page, perPage)
}

func (s *Service) list(ctx context.Context, approvedOnly bool, page, perPage int) ([]store.Testimonial, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.Q.ListTestimonials(ctx, approvedOnly, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return rows, nil
}

// Approve makes a testimonial visible on the storefront.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (store.Testimonial, error) {
	row, err := s.Q.ApproveTestimonial(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Testimonial{}, ErrNotFound
	}
	if err != nil {
		return store.Testimonial{}, fmt.Errorf("approve testimonial: %w", err)
	}
	return row, nil
}

// Delete removes a testimonial.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Q.DeleteTestimonial(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete testimonial: %w", err)
	}
	return nil
}
