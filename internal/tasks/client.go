package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks. A nil Client drops tasks silently so the
// API can run without a worker in development.
type Client struct {
	asynq *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(c *asynq.Client) *Client {
	return &Client{asynq: c}
}

// EnqueueOTPSMS schedules delivery of a one-time login code.
func (c *Client) EnqueueOTPSMS(ctx context.Context, phone, code string) error {
	if c == nil || c.asynq == nil {
		return nil
	}
	task, err := NewOTPSMSTask(OTPSMSPayload{Phone: phone, Code: code})
	if err != nil {
		return err
	}
	if _, err := c.asynq.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue otp sms: %w", err)
	}
	return nil
}

// EnqueueOrderEmail schedules an order confirmation email.
func (c *Client) EnqueueOrderEmail(ctx context.Context, payload OrderEmailPayload) error {
	if c == nil || c.asynq == nil {
		return nil
	}
	task, err := NewOrderEmailTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.asynq.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue order email: %w", err)
	}
	return nil
}
