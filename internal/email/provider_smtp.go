package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/example/pos-notifier/internal/business"
)

// SMTPProvider delivers through the SMTP server named in the business mail
// settings. Fallback fills in any field the business left empty.
type SMTPProvider struct {
	Fallback business.EmailSettings
	Timeout  time.Duration
}

func (p *SMTPProvider) Name() string { return "smtp" }

func (p *SMTPProvider) Send(ctx context.Context, settings business.EmailSettings, env Envelope) error {
	s, env := p.route(settings, env)
	if s.Host == "" {
		return errors.New("smtp host is not configured")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(env.FromName, env.FromAddress); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(env.Subject)
	msg.SetBodyString(mail.TypeTextHTML, env.HTML)

	client, err := mail.NewClient(s.Host, p.clientOptions(s)...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (p *SMTPProvider) clientOptions(s business.EmailSettings) []mail.Option {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []mail.Option{mail.WithTimeout(timeout)}
	if s.Port > 0 {
		opts = append(opts, mail.WithPort(s.Port))
	}
	switch strings.ToLower(s.Encryption) {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "tls":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	return opts
}

// route picks the server settings and sender for one message. When the
// business has no server of its own the service relay is used, and the
// envelope is sent from the relay's address so the relay accepts it.
func (p *SMTPProvider) route(settings business.EmailSettings, env Envelope) (business.EmailSettings, Envelope) {
	s := mergeSettings(settings, p.Fallback)
	if settings.Host == "" && p.Fallback.FromAddress != "" {
		env.FromAddress = p.Fallback.FromAddress
		env.FromName = firstNonEmpty(env.FromName, p.Fallback.FromName)
	}
	return s, env
}

func mergeSettings(s, fallback business.EmailSettings) business.EmailSettings {
	if s.Host == "" {
		// a business without its own server uses the service mailbox entirely
		return fallback
	}
	if s.FromAddress == "" {
		s.FromAddress = fallback.FromAddress
	}
	return s
}
