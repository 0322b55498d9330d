package tasks

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/meadowline/backend-dairy/internal/common"
)

func TestHandleOTPSMSDeliversCode(t *testing.T) {
	sms := &common.InMemorySMS{}
	h := &Handlers{SMS: sms, Log: zerolog.Nop()}

	task, err := NewOTPSMSTask(OTPSMSPayload{Phone: "+911234567890", Code: "482913"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.HandleOTPSMS(context.Background(), task); err != nil {
		t.Fatalf("handle otp sms: %v", err)
	}
	if len(sms.Outbox) != 1 {
		t.Fatalf("expected one sms, got %d", len(sms.Outbox))
	}
	if sms.Outbox[0].To != "+911234567890" {
		t.Fatalf("unexpected recipient: %s", sms.Outbox[0].To)
	}
	if !strings.Contains(sms.Outbox[0].Body, "482913") {
		t.Fatalf("code missing from body: %s", sms.Outbox[0].Body)
	}
}

func TestHandleOrderEmailSendsConfirmation(t *testing.T) {
	email := &common.InMemoryEmail{}
	h := &Handlers{Email: email, Currency: "INR", Log: zerolog.Nop()}

	task, err := NewOrderEmailTask(OrderEmailPayload{
		OrderID:    "ord-1",
		Email:      "asha@example.com",
		Name:       "Asha",
		TotalMinor: 14500,
		Currency:   "INR",
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.HandleOrderEmail(context.Background(), task); err != nil {
		t.Fatalf("handle order email: %v", err)
	}
	if len(email.Outbox) != 1 {
		t.Fatalf("expected one email, got %d", len(email.Outbox))
	}
	if !strings.Contains(email.Outbox[0].HTML, "145.00") {
		t.Fatalf("total missing from body: %s", email.Outbox[0].HTML)
	}
}

func TestHandleOrderEmailSkipsWithoutAddress(t *testing.T) {
	email := &common.InMemoryEmail{}
	h := &Handlers{Email: email, Log: zerolog.Nop()}

	task, err := NewOrderEmailTask(OrderEmailPayload{OrderID: "ord-2"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.HandleOrderEmail(context.Background(), task); err != nil {
		t.Fatalf("handle order email: %v", err)
	}
	if len(email.Outbox) != 0 {
		t.Fatalf("expected no email, got %d", len(email.Outbox))
	}
}
