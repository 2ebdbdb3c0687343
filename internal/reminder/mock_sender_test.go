package reminder

import (
	"context"
	"sync"

	"github.com/tasktracker/reminder-worker/internal/domain"
)

// MockEmailSender records reminder emails instead of sending them.
type MockEmailSender struct {
	mu   sync.Mutex
	sent []domain.ReminderEmail

	// SendFn, when set, decides the result of each send. The email is
	// recorded only when it returns nil.
	SendFn func(ctx context.Context, email domain.ReminderEmail) error
}

var _ EmailSender = (*MockEmailSender)(nil)

// SendReminder implements EmailSender.
func (m *MockEmailSender) SendReminder(ctx context.Context, email domain.ReminderEmail) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

// Sent returns a copy of the emails sent so far.
func (m *MockEmailSender) Sent() []domain.ReminderEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReminderEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
