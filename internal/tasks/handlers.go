package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/meadowline/backend-dairy/internal/common"
)

// Handlers processes background tasks on the worker side.
type Handlers struct {
	SMS      common.SMSSender
	Email    common.EmailSender
	Currency string
	Log      zerolog.Logger
}

// Mux registers all task handlers on an asynq serve mux.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOTPSMS, h.HandleOTPSMS)
	mux.HandleFunc(TypeOrderEmail, h.HandleOrderEmail)
	return mux
}

// HandleOTPSMS delivers a one-time login code over SMS.
func (h *Handlers) HandleOTPSMS(ctx context.Context, task *asynq.Task) error {
	var payload OTPSMSPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal otp sms payload: %v: %w", err, asynq.SkipRetry)
	}
	sender := h.SMS
	if sender == nil {
		sender = common.NopSMSSender{}
	}
	body := fmt.Sprintf("Your login code is %s. It expires in a few minutes.", payload.Code)
	if err := sender.Send(payload.Phone, body); err != nil {
		return fmt.Errorf("send otp sms: %w", err)
	}
	h.Log.Info().Str("phone", common.MaskPhone(payload.Phone)).Msg("otp sms delivered")
	return nil
}

// HandleOrderEmail sends an order confirmation email.
func (h *Handlers) HandleOrderEmail(ctx context.Context, task *asynq.Task) error {
	var payload OrderEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal order email payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" {
		return nil
	}
	sender := h.Email
	if sender == nil {
		sender = common.NopEmailSender{}
	}
	currency := h.Currency
	if currency == "" {
		currency = "INR"
	}
	subject := fmt.Sprintf("Order %s confirmed", payload.OrderID)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your order <strong>%s</strong> has been placed. Total: %s %d.%02d. You pay on delivery.</p>",
		payload.Name, payload.OrderID, currency, payload.TotalMinor/100, payload.TotalMinor%100,
	)
	if err := sender.Send(payload.Email, subject, html); err != nil {
		return fmt.Errorf("send order email: %w", err)
	}
	h.Log.Info().Str("order_id", payload.OrderID).Msg("order confirmation email sent")
	return nil
}
