package service

import (
	"context"
	"errors"

	"bitwise74/contacts-api/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPMailer sends plain text mail through an SMTP relay
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(c config.Mail) *SMTPMailer {
	username := c.Username
	if username == "" {
		username = c.From
	}

	return &SMTPMailer{
		from:   c.From,
		dialer: gomail.NewDialer(c.Host, c.Port, username, c.Password),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" || to == m.from {
		return errors.New("invalid email address")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// LogMailer only logs outgoing mail. Used when mail is disabled
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	zap.L().Debug("Mail delivery disabled, dropping message",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
