// Package mailer renders lesson scripts to mail messages and sends them.
// Sends are paced by a rate limiter and bounded by a per-send timeout.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/time/rate"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

//go:generate moq -out mocks/transport.go -pkg mocks -skip-ensure -fmt goimports . Transport

// ErrSend wraps every failure to render or deliver a lesson
var ErrSend = errors.New("send failed")

// DefaultFrom is used when no sender is configured
const DefaultFrom = "no-reply@example.com"

// Transport delivers a rendered message
type Transport interface {
	Send(ctx context.Context, from string, msg Message) error
}

// Params configures a Mailer
type Params struct {
	From       string
	BaseURL    string
	RatePerSec int           // zero disables pacing
	Timeout    time.Duration // per send, zero means no timeout
	Transport  Transport
}

// Mailer renders and sends lessons
type Mailer struct {
	renderer  *Renderer
	transport Transport
	from      string
	timeout   time.Duration
	limiter   *rate.Limiter
}

// New makes a mailer over the transport
func New(p Params) (*Mailer, error) {
	if p.Transport == nil {
		return nil, errors.New("no transport")
	}
	renderer, err := NewRenderer(p.BaseURL)
	if err != nil {
		return nil, err
	}
	if p.From == "" {
		p.From = DefaultFrom
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if p.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.RatePerSec), 1)
	}
	return &Mailer{renderer: renderer, transport: p.Transport, from: p.From, timeout: p.Timeout, limiter: limiter}, nil
}

// NewFromConfig makes a mailer with the SMTP transport, or the console transport if no SMTP host is set
func NewFromConfig(cfg config.MailConfig) (*Mailer, error) {
	var transport Transport = NewConsole(nil)
	if cfg.SMTP.Host != "" {
		smtp, err := NewSMTP(cfg.SMTP, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		transport = smtp
		lgr.Printf("[INFO] smtp transport %s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
	}
	return New(Params{From: cfg.From, BaseURL: cfg.BaseURL, RatePerSec: cfg.RatePerSec, Timeout: cfg.Timeout,
		Transport: transport})
}

// Send renders the lesson numbered logID and delivers it to the subscriber.
// Any failure is returned wrapped in ErrSend.
func (m *Mailer) Send(ctx context.Context, sub domain.Subscriber, script domain.LessonScript, logID int64) error {
	msg, err := m.renderer.Render(sub, script, logID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: wait for rate limiter: %w", ErrSend, err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if err := m.transport.Send(ctx, sender(m.from, sub.Lang()), msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	lgr.Printf("[DEBUG] mailed %q to %s", msg.Subject, sub.Email)
	return nil
}

// sender returns from as is if it has a display name, otherwise names it after the language,
// e.g. "Daily Japanese <no-reply@example.com>"
func sender(from string, lang domain.Language) string {
	addr, err := mail.ParseAddress(from)
	if err != nil || addr.Name != "" {
		return from
	}
	return fmt.Sprintf("%s <%s>", lang.SubjectPrefix(), addr.Address)
}

// UnsubscribeURL returns the unsubscribe link for the token
func (m *Mailer) UnsubscribeURL(token string) string {
	return m.renderer.UnsubscribeURL(token)
}
