package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/messaging"
	"go.uber.org/zap"
)

// Consumer consumes challenge-issued events and delivers sign-in emails.
type Consumer struct {
	inner   *messaging.Consumer[auth.ChallengeIssuedEvent]
	sender  Sender
	baseURL string
	logger  *zap.Logger
}

// NewConsumer creates a new sign-in mail consumer. baseURL is the public
// address the sign-in link points back to.
func NewConsumer(subscriber message.Subscriber, sender Sender, baseURL string, logger *zap.Logger) *Consumer {
	c := &Consumer{
		sender:  sender,
		baseURL: baseURL,
		logger:  logger,
	}

	c.inner = messaging.NewConsumer(subscriber, auth.TopicChallengeIssued, c.handleChallengeIssued, logger)

	return c
}

// Start begins consuming challenge-issued events.
func (c *Consumer) Start(ctx context.Context) error {
	return c.inner.Start(ctx)
}

func (c *Consumer) handleChallengeIssued(ctx context.Context, event *auth.ChallengeIssuedEvent) error {
	subject, body := c.composeSignInMail(event)

	if err := c.sender.Send(ctx, event.Email, subject, body); err != nil {
		return fmt.Errorf("failed to deliver sign-in email to %s: %w", event.Email, err)
	}

	c.logger.Debug("sign-in email delivered",
		zap.String("email", event.Email),
	)

	return nil
}

func (c *Consumer) composeSignInMail(event *auth.ChallengeIssuedEvent) (subject, body string) {
	signInURL := fmt.Sprintf("%s/auth/complete?email=%s&token=%s",
		c.baseURL,
		url.QueryEscape(event.Email),
		url.QueryEscape(event.Token),
	)

	subject = "Your sign-in link"

	body = fmt.Sprintf(`Hello,

Follow this link to sign in:

%s

If you did not request this, please ignore this email.
`, signInURL)

	if event.RequestedFrom != "" {
		body += fmt.Sprintf("\nThis sign-in was requested from %s.\n", event.RequestedFrom)
	}

	return subject, body
}

// Shutdown stops the consumer and waits for in-flight messages to complete.
func (c *Consumer) Shutdown() error {
	return c.inner.Shutdown()
}
