package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, user_id, refresh_token_hash, expires_at, revoked_at, created_at`

const (
	createSessionSQL = `INSERT INTO sessions (user_id, refresh_token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + sessionColumns

	getSessionByTokenHashSQL = `SELECT ` + sessionColumns + ` FROM sessions
		WHERE refresh_token_hash = $1 AND revoked_at IS NULL AND expires_at > now()`

	revokeSessionSQL      = `UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`
	revokeUserSessionsSQL = `UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
)

// CreateSession persists a refresh-token session.
func (q *Queries) CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (Session, error) {
	rows, err := q.db.Query(ctx, createSessionSQL, userID, tokenHash, expiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	session, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSessionByTokenHash resolves a live session by the hash of its refresh token.
func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	rows, err := q.db.Query(ctx, getSessionByTokenHashSQL, tokenHash)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	session, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// RevokeSession marks a single session revoked.
func (q *Queries) RevokeSession(ctx context.Context, id uuid.UUID) error {
	if _, err := q.db.Exec(ctx, revokeSessionSQL, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeUserSessions revokes every live session owned by a user.
func (q *Queries) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := q.db.Exec(ctx, revokeUserSessionsSQL, userID); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

func scanSession(row pgx.CollectableRow) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	return s, err
}
