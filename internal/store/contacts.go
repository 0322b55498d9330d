package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const contactColumns = `id, name, email, phone, message, created_at`

const (
	createContactSQL = `INSERT INTO contacts (name, email, phone, message)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + contactColumns

	listContactsSQL = `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	deleteContactSQL = `DELETE FROM contacts WHERE id = $1`
)

// CreateContact stores a contact-form submission.
func (q *Queries) CreateContact(ctx context.Context, name, email, phone, message string) (Contact, error) {
	rows, err := q.db.Query(ctx, createContactSQL, name, email, phone, message)
	if err != nil {
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}
	contact, err := pgx.CollectExactlyOneRow(rows, scanContact)
	if err != nil {
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// ListContacts returns a page of submissions, newest first.
func (q *Queries) ListContacts(ctx context.Context, limit, offset int) ([]Contact, error) {
	rows, err := q.db.Query(ctx, listContactsSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	contacts, err := pgx.CollectRows(rows, scanContact)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// DeleteContact removes a handled submission.
func (q *Queries) DeleteContact(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteContactSQL, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContact(row pgx.CollectableRow) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Message, &c.CreatedAt)
	return c, err
}
