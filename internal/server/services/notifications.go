package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/server/models"
)

const verificationSubject = "Verify your help-desk account"

// sendVerification queues the email and, when a phone is on file, the SMS.
// The two are independent jobs; neither can fail the calling operation.
func (s *AccountService) sendVerification(ctx context.Context, account *models.Account, verificationURL, otp string) {
	if s.notifier == nil {
		return
	}

	expiresIn := humanDuration(s.otpValidity)

	if s.notifier.EmailEnabled() {
		to := account.Email
		body := verificationEmailBody(account.Name, verificationURL, otp, expiresIn)
		s.submit(ctx, "email", func(ctx context.Context) error {
			return s.notifier.SendEmail(ctx, to, verificationSubject, body)
		})
	}

	if account.Phone != nil && s.notifier.SMSEnabled() {
		to := *account.Phone
		body := fmt.Sprintf("Your help-desk verification code is %s. It expires in %s.", otp, expiresIn)
		s.submit(ctx, "sms", func(ctx context.Context) error {
			return s.notifier.SendSMS(ctx, to, body)
		})
	}
}

func (s *AccountService) submit(ctx context.Context, channel string, send func(ctx context.Context) error) {
	ok := s.dispatcher.Submit("notify_"+channel, func(ctx context.Context) error {
		if err := send(ctx); err != nil {
			s.metrics.Notification(channel, "failed")
			return fmt.Errorf("send %s: %w", channel, err)
		}
		s.metrics.Notification(channel, "sent")
		return nil
	})
	if !ok {
		s.metrics.Notification(channel, "dropped")
		s.logger.Warn(ctx, "notification dropped, queue full", "channel", channel)
	}
}

func verificationEmailBody(name, verificationURL, otp, expiresIn string) string {
	return fmt.Sprintf(`Hello %s,

Please verify your help-desk account by opening the link below:

%s

Or enter this one-time code: %s

The code expires in %s.
`, name, verificationURL, otp, expiresIn)
}

// humanDuration renders d as "10 minutes", "1 hour" or "90 seconds".
func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
