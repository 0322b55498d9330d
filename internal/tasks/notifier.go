package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meadowline/backend-dairy/internal/events"
)

// OrderEnqueuer is the slice of the task client the notifier needs.
type OrderEnqueuer interface {
	EnqueueOrderEmail(ctx context.Context, payload OrderEmailPayload) error
}

// OrderNotifier listens on the event bus and turns placed orders into
// confirmation-email tasks. Orders without a buyer email are skipped.
type OrderNotifier struct {
	Enqueue  OrderEnqueuer
	Currency string
}

// Notify implements events.Notifier.
func (n *OrderNotifier) Notify(ctx context.Context, topic string, payload []byte) error {
	if n == nil || n.Enqueue == nil || topic != events.TopicOrderPlaced {
		return nil
	}
	var evt struct {
		OrderID    string `json:"order_id"`
		Email      string `json:"email"`
		Name       string `json:"name"`
		TotalMinor int64  `json:"total_minor"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("decode order placed event: %w", err)
	}
	if evt.Email == "" {
		return nil
	}
	return n.Enqueue.EnqueueOrderEmail(ctx, OrderEmailPayload{
		OrderID:    evt.OrderID,
		Email:      evt.Email,
		Name:       evt.Name,
		TotalMinor: evt.TotalMinor,
		Currency:   n.Currency,
	})
}
