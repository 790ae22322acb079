// Package email delivers notification mail over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/shared/config"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends multipart text and HTML mail. It is disabled when no
// SMTP host is configured.
type SMTPNotifier struct {
	config config.EmailConfig
	dialer dialer
	logger logger.Interface
}

var _ provider.EmailNotifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg config.EmailConfig, logger logger.Interface) *SMTPNotifier {
	n := &SMTPNotifier{config: cfg, logger: logger}
	if cfg.SMTPHost != "" {
		n.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return n
}

func (s *SMTPNotifier) Enabled() bool {
	return s.dialer != nil
}

func (s *SMTPNotifier) Send(ctx context.Context, msg provider.EmailMessage) (bool, error) {
	if !s.Enabled() {
		s.logger.Debugw("email notifier not configured, skipping", "subject", msg.Subject)
		return false, nil
	}
	if msg.To == "" {
		return false, fmt.Errorf("email recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := s.dialer.DialAndSend(s.buildMessage(msg)); err != nil {
		return false, fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infow("email sent", "to", msg.To, "subject", msg.Subject)
	return true, nil
}

func (s *SMTPNotifier) buildMessage(msg provider.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()

	from := s.config.FromAddress
	if s.config.FromName != "" {
		from = m.FormatAddress(s.config.FromAddress, s.config.FromName)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}
	return m
}
