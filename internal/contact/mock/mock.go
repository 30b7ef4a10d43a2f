// Package mock is a contact.Sender that only logs the composed email.
package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/flexfit/storefront/internal/contact"
)

// Sender logs each message and reports success after an optional delay.
type Sender struct {
	shopName  string
	recipient string
	delay     time.Duration
	logger    *slog.Logger
}

// New creates a logging sender.
func New(shopName, recipient string, delay time.Duration, logger *slog.Logger) *Sender {
	return &Sender{shopName: shopName, recipient: recipient, delay: delay, logger: logger}
}

// Send logs the email. It fails only when ctx ends during the delay.
func (s *Sender) Send(ctx context.Context, m contact.Message) contact.Result {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return contact.Failed()
		case <-timer.C:
		}
	}

	s.logger.InfoContext(ctx, "contact email composed",
		slog.String("to", s.recipient),
		slog.String("content", contact.ComposeEmail(s.shopName, m)),
	)
	return contact.Sent()
}
