package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meadowline/backend-dairy/internal/events"
	"github.com/meadowline/backend-dairy/internal/store"
)

// ErrInvalidInput marks a submission that fails validation.
var ErrInvalidInput = errors.New("contact: invalid input")

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = errors.New("contact: not found")

// Querier captures the store methods the contact service needs.
type Querier interface {
	CreateContact(ctx context.Context, name, email, phone, message string) (store.Contact, error)
	ListContacts(ctx context.Context, limit, offset int) ([]store.Contact, error)
	DeleteContact(ctx context.Context, id uuid.UUID) error
}

// Submission is a contact form payload.
type Submission struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,min=8,max=20"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

// Service stores contact form submissions and notifies downstream listeners.
type Service struct {
	Q        Querier
	Bus      *events.Bus
	Validate *validator.Validate
	Log      zerolog.Logger
}

func (s *Service) validate() *validator.Validate {
	if s.Validate != nil {
		return s.Validate
	}
	return validator.New()
}

// Submit validates and records a contact form submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (store.Contact, error) {
	if s == nil {
		return store.Contact{}, errors.New("contact service not configured")
	}
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(strings.ToLower(sub.Email))
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Message = strings.TrimSpace(sub.Message)
	if err := s.validate().Struct(sub); err != nil {
		return store.Contact{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	row, err := s.Q.CreateContact(ctx, sub.Name, sub.Email, sub.Phone, sub.Message)
	if err != nil {
		return store.Contact{}, fmt.Errorf("create contact: %w", err)
	}

	if s.Bus != nil {
		payload := map[string]any{"contact_id": row.ID.String(), "email": row.Email}
		if err := s.Bus.Emit(ctx, events.TopicContactReceived, payload); err != nil {
			s.Log.Error().Err(err).Str("contact_id", row.ID.String()).Msg("emit contact event")
		}
	}
	return row, nil
}

// List returns stored submissions, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]store.Contact, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.Q.ListContacts(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return rows, nil
}

// Delete removes a handled submission.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("contact service not configured")
	}
	if err := s.Q.DeleteContact(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}
