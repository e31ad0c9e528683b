package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a message to an inbox.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender is a development Sender that logs instead of delivering.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(_ context.Context, to, subject, body string) error {
	l.logger.Info("sign-in email (log sender)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)

	return nil
}
