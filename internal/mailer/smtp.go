package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig holds the connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers mail over SMTP. Port 465 uses implicit TLS; any other
// port upgrades with STARTTLS.
type SMTPSender struct {
	cfg    SMTPConfig
	auth   smtp.Auth
	logger *zap.Logger
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &SMTPSender{
		cfg:    cfg,
		auth:   smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		logger: logger,
	}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := s.buildMessage(to, subject, body)
	address := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if s.cfg.Port == 465 {
		return s.sendImplicitTLS(address, to, msg)
	}

	return s.sendSTARTTLS(address, to, msg)
}

func (s *SMTPSender) buildMessage(to, subject, body string) []byte {
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n",
		s.cfg.From, to, subject,
	)

	return []byte(headers + body)
}

func (s *SMTPSender) sendImplicitTLS(address, to string, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: s.cfg.Timeout}, "tcp", address, tlsConfig)
	if err != nil {
		return fmt.Errorf("dial smtp (implicit tls): %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	return s.sendOverClient(client, to, msg)
}

func (s *SMTPSender) sendSTARTTLS(address, to string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", address, s.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	return s.sendOverClient(client, to, msg)
}

func (s *SMTPSender) sendOverClient(client *smtp.Client, to string, msg []byte) error {
	if err := client.Auth(s.auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	if err = client.Quit(); err != nil {
		s.logger.Warn("smtp quit failed", zap.Error(err))
	}

	return nil
}
