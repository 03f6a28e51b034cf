package testsupport

import (
	"context"
	"sync"

	"clapper/internal/contact"
)

// Mailer records composed messages instead of delivering them.
type Mailer struct {
	mu   sync.Mutex
	Err  error
	sent []contact.Message
}

// Send records msg and returns the configured error, if any.
func (m *Mailer) Send(ctx context.Context, msg contact.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of every delivered message.
func (m *Mailer) Sent() []contact.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contact.Message(nil), m.sent...)
}
