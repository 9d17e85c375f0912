package billing

import (
	"context"
	"log"
	"sync"
)

// =============================================================================
// NOTIFIER IMPLEMENTATIONS
// =============================================================================

// LogNotifier writes notifications to the process log. Stands in for the
// real delivery channel (email/push), which is a collaborator outside this
// core.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	switch n.Kind {
	case NotifyPaymentDenied:
		log.Printf("[Notify] tenant=%s payment=%s denied: %s", n.TenantID, n.PaymentID, n.Reason)
	default:
		log.Printf("[Notify] tenant=%s payment=%s %s amount=%s rent_due=%s",
			n.TenantID, n.PaymentID, n.Kind, n.Amount, n.RentDue)
	}
	return nil
}

// MemoryNotifier records notifications for assertions in tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (m *MemoryNotifier) Notify(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *MemoryNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
