package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	insertEventSQL = `INSERT INTO domain_events (topic, payload) VALUES ($1, $2)`

	listEventsByTopicSQL = `SELECT id, topic, payload, created_at FROM domain_events
		WHERE topic = $1 ORDER BY created_at DESC LIMIT $2`
)

// InsertEvent appends a domain event to the audit log.
func (q *Queries) InsertEvent(ctx context.Context, topic string, payload []byte) error {
	if _, err := q.db.Exec(ctx, insertEventSQL, topic, payload); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEventsByTopic returns recent events for a topic, newest first.
func (q *Queries) ListEventsByTopic(ctx context.Context, topic string, limit int) ([]Event, error) {
	rows, err := q.db.Query(ctx, listEventsByTopicSQL, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		err := row.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
