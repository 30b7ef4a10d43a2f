package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flexfit/storefront/internal/contact"
	pkgvalidator "github.com/flexfit/storefront/pkg/validator"
)

// ContactService validates contact messages and hands them to a sender.
type ContactService struct {
	sender contact.Sender
	logger *slog.Logger
}

// NewContactService creates a contact service.
func NewContactService(sender contact.Sender, logger *slog.Logger) *ContactService {
	return &ContactService{sender: sender, logger: logger}
}

// Submit sends m. Invalid input and delivery failures both come back as a
// failed Result.
func (s *ContactService) Submit(ctx context.Context, m contact.Message) contact.Result {
	m = m.Normalize()

	if err := pkgvalidator.Validate(m); err != nil {
		msg := contactValidationMessage(err)
		s.logger.DebugContext(ctx, "contact message rejected", slog.String("reason", msg))
		return contact.Result{Success: false, Message: msg}
	}

	res := s.sender.Send(ctx, m)
	if !res.Success {
		s.logger.WarnContext(ctx, "contact message not delivered", slog.String("result", res.Message))
		if res.Message == "" {
			res.Message = contact.MessageFailed
		}
	}
	return res
}

func contactValidationMessage(err error) string {
	var ve *pkgvalidator.ValidationError
	if !errors.As(err, &ve) || ve.First() == nil {
		return contact.MessageFailed
	}

	fe := ve.First()
	field := pkgvalidator.Humanize(fe.StructField())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please enter your %s", field)
	case "basic_email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("Your %s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("Please check your %s", field)
	}
}
