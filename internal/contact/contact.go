// Package contact sends contact-form messages to the shop owner.
package contact

import (
	"context"
	"fmt"
	"strings"
)

// DefaultSubject is used when the sender leaves the subject empty.
const DefaultSubject = "General Inquiry"

// User-facing result messages.
const (
	MessageSent   = "Message sent successfully!"
	MessageFailed = "Failed to send message. Please try again."
)

// Message is a submitted contact form.
type Message struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,basic_email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Normalize trims every field and applies DefaultSubject.
func (m Message) Normalize() Message {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	if m.Subject == "" {
		m.Subject = DefaultSubject
	}
	return m
}

// Result is the outcome of a send. Failures are values, not errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Sent is the successful Result.
func Sent() Result { return Result{Success: true, Message: MessageSent} }

// Failed is the failed Result.
func Failed() Result { return Result{Success: false, Message: MessageFailed} }

// Sender delivers contact messages. Send never returns an error; every
// failure resolves to a Result with Success false.
type Sender interface {
	Send(ctx context.Context, m Message) Result
}

// ComposeEmail renders the plain-text email body for m.
func ComposeEmail(shopName string, m Message) string {
	m = m.Normalize()
	var b strings.Builder
	fmt.Fprintf(&b, "New Message from %s Contact Form\n\n", shopName)
	fmt.Fprintf(&b, "From: %s (%s)\n", m.Name, m.Email)
	fmt.Fprintf(&b, "Subject: %s\n\n", m.Subject)
	fmt.Fprintf(&b, "Message:\n%s\n\n", m.Message)
	fmt.Fprintf(&b, "---\nThis message was sent from the %s contact form.\n", shopName)
	return b.String()
}
