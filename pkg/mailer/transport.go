package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/wneessen/go-mail"

	"github.com/dailylesson/lessonmail/pkg/config"
)

// SMTP sends messages through an SMTP relay
type SMTP struct {
	client *mail.Client
}

// NewSMTP makes an SMTP transport. Authentication is used only when username is set.
func NewSMTP(cfg config.SMTPConfig, timeout time.Duration) (*SMTP, error) {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	opts := []mail.Option{mail.WithPort(port), mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}
	if cfg.Username != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("make smtp client for %s: %w", cfg.Host, err)
	}
	return &SMTP{client: client}, nil
}

// Send delivers one message
func (s *SMTP) Send(ctx context.Context, from string, msg Message) error {
	m, err := buildMsg(from, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// buildMsg makes a multipart message with the text body and the html alternative
func buildMsg(from string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	if msg.UnsubscribeURL != "" {
		m.SetGenHeader(mail.Header("List-Unsubscribe"), "<"+msg.UnsubscribeURL+">")
	}
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

// Console prints messages to the log, used when no SMTP host is configured
type Console struct {
	l lgr.L
}

// NewConsole makes a console transport writing to l, the default logger if nil
func NewConsole(l lgr.L) *Console {
	if l == nil {
		l = lgr.Default()
	}
	return &Console{l: l}
}

// Send prints the message headers and the text body
func (c *Console) Send(_ context.Context, from string, msg Message) error {
	c.l.Logf("[INFO] no smtp configured, printing mail from %q to %q, subject %q\n%s", from, msg.To, msg.Subject, msg.Text)
	return nil
}
