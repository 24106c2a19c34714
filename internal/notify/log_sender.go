package notify

import (
	"context"

	"github.com/dmitrijs2005/helpdesk/internal/logging"
)

// LogSender writes messages to the log instead of delivering them.
// Not meant for production: recipients and verification codes end up in the log.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "log_sender")}
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.logger.Info(ctx, "send email", "to", to, "subject", subject, "body", body)
	return nil
}

func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info(ctx, "send sms", "to", to, "body", body)
	return nil
}
