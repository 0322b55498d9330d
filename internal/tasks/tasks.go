package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names, namespaced by concern.
const (
	TypeOTPSMS     = "otp:sms"
	TypeOrderEmail = "order:confirmation_email"
)

// Queue names used by the worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// OTPSMSPayload carries a one-time code delivery request.
type OTPSMSPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// OrderEmailPayload carries an order confirmation notification.
type OrderEmailPayload struct {
	OrderID    string `json:"order_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	TotalMinor int64  `json:"total_minor"`
	Currency   string `json:"currency"`
}

// NewOTPSMSTask builds the task for delivering a one-time login code.
func NewOTPSMSTask(payload OTPSMSPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal otp sms payload: %w", err)
	}
	return asynq.NewTask(TypeOTPSMS, data, asynq.Queue(QueueCritical), asynq.MaxRetry(3)), nil
}

// NewOrderEmailTask builds the task for sending an order confirmation email.
func NewOrderEmailTask(payload OrderEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order email payload: %w", err)
	}
	return asynq.NewTask(TypeOrderEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
