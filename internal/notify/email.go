package notify

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type EmailConfig struct {
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password"`
	FromEmail    string   `yaml:"from_email"`
	OperatorTo   []string `yaml:"operator_to"`
}

func (c EmailConfig) Enabled() bool { return c.SMTPHost != "" && len(c.OperatorTo) > 0 }

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailAlerter mails operator alerts.
type EmailAlerter struct {
	dialer mailSender
	from   string
	to     []string
}

func NewEmailAlerter(cfg EmailConfig) *EmailAlerter {
	return &EmailAlerter{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.FromEmail,
		to:     cfg.OperatorTo,
	}
}

func (e *EmailAlerter) Alert(ctx context.Context, subject, body string) error {
	if len(e.to) == 0 {
		return ErrNotConfigured
	}
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to...)
	m.SetHeader("Subject", "[Niplan] "+subject)
	m.SetBody("text/html", fmt.Sprintf(`
		<h3>%s</h3>
		<pre>%s</pre>
	`, html.EscapeString(subject), html.EscapeString(body)))

	return runWithContext(ctx, func() error {
		if err := e.dialer.DialAndSend(m); err != nil {
			return fmt.Errorf("failed to send operator alert: %w", err)
		}
		return nil
	})
}
