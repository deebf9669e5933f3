package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig carries the settings for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends multipart (text + HTML) email.  Port 465 uses implicit
// TLS; other ports upgrade with STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTPMailer returns a Mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, now: time.Now}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Email) error {
	out, err := m.build(msg)
	if err != nil {
		return err
	}
	c, err := mail.NewClient(m.cfg.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

// build renders msg as a multipart/alternative message with a plain text
// part derived from the HTML when Text is empty.
func (m *SMTPMailer) build(msg Email) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(m.now())

	text := msg.Text
	if text == "" {
		text = plainText(msg.HTML)
	}
	out.SetBodyString(mail.TypeTextPlain, text)
	out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return out, nil
}
