package notify

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Subject)
	msg.AddAlternative("text/html", email.HTML)
	return m.dialer.DialAndSend(msg)
}

// LogMailer logs what would have been sent. Used when SMTP is not configured.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, email Email) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("email not configured, skipping send",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}
