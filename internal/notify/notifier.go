// Package notify delivers verification messages over email and SMS.
//
// Delivery is best effort: callers log failures and carry on. A channel
// without a configured sender is disabled rather than failing.
package notify

import (
	"context"
	"errors"
)

// ErrChannelDisabled is returned when a message is sent over a channel
// that has no sender configured.
var ErrChannelDisabled = errors.New("notification channel disabled")

// EmailSender sends a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a text message to an E.164 phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Notifier combines the configured channels. Either sender may be nil.
type Notifier struct {
	email EmailSender
	sms   SMSSender
}

func New(email EmailSender, sms SMSSender) *Notifier {
	return &Notifier{email: email, sms: sms}
}

func (n *Notifier) EmailEnabled() bool { return n.email != nil }

func (n *Notifier) SMSEnabled() bool { return n.sms != nil }

func (n *Notifier) SendEmail(ctx context.Context, to, subject, body string) error {
	if n.email == nil {
		return ErrChannelDisabled
	}
	return n.email.SendEmail(ctx, to, subject, body)
}

func (n *Notifier) SendSMS(ctx context.Context, to, body string) error {
	if n.sms == nil {
		return ErrChannelDisabled
	}
	return n.sms.SendSMS(ctx, to, body)
}
