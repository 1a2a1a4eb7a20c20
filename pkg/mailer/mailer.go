// Package mailer sends transactional mail over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail with net/smtp.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, htmlBody)

	var auth smtp.Auth
	if m.cfg.Password != "" {
		user := m.cfg.Username
		if user == "" {
			user = m.cfg.From
		}
		auth = smtp.PlainAuth("", user, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	logger.Info(ctx).Str("to", to).Str("subject", subject).Msg("Mail delivery disabled, message logged")
	return nil
}
