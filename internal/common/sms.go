package common

// SMSSender defines the contract for delivering text messages.
type SMSSender interface {
	Send(to, body string) error
}

// SMS is a single message captured by InMemorySMS.
type SMS struct {
	To   string
	Body string
}

// InMemorySMS records outgoing messages for tests.
type InMemorySMS struct {
	Outbox []SMS
}

// Send records the message in memory.
func (m *InMemorySMS) Send(to, body string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, SMS{To: to, Body: body})
	return nil
}

// NopSMSSender implements SMSSender without performing any action.
type NopSMSSender struct{}

// Send implements SMSSender.
func (NopSMSSender) Send(string, string) error { return nil }

// MaskPhone hides all but the last two digits of a phone number for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	masked := make([]byte, len(phone)-2)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-2:]
}
