// Package kafka delivers contact messages as storefront.contact.submitted
// events for a downstream mailer to pick up.
package kafka

import (
	"context"
	"log/slog"

	"github.com/flexfit/storefront/internal/contact"
	"github.com/flexfit/storefront/internal/event"
)

// Publisher is the subset of event.Producer used here.
type Publisher interface {
	PublishContactSubmitted(ctx context.Context, data event.ContactSubmittedData) error
}

// Sender publishes contact messages.
type Sender struct {
	publisher Publisher
	logger    *slog.Logger
}

// New creates a Kafka-backed sender.
func New(publisher Publisher, logger *slog.Logger) *Sender {
	return &Sender{publisher: publisher, logger: logger}
}

// Send publishes m. A publish failure is logged and reported as a failed
// Result.
func (s *Sender) Send(ctx context.Context, m contact.Message) contact.Result {
	m = m.Normalize()

	err := s.publisher.PublishContactSubmitted(ctx, event.ContactSubmittedData{
		Name:    m.Name,
		Email:   m.Email,
		Subject: m.Subject,
		Message: m.Message,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish contact message",
			slog.String("subject", m.Subject),
			slog.String("error", err.Error()),
		)
		return contact.Failed()
	}

	s.logger.InfoContext(ctx, "contact message published", slog.String("subject", m.Subject))
	return contact.Sent()
}
