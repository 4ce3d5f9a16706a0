// Package email lays out rendered notifications for customers or suppliers
// and hands them to the mail provider a business has configured.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/dispatch"
	"github.com/example/pos-notifier/internal/vocabulary"
)

var layouts = template.Must(template.New("customer").Parse(
	`<div class="notification notification-customer">{{.Body}}</div>`,
))

func init() {
	template.Must(layouts.New("supplier").Parse(
		`<div class="notification notification-supplier">{{.Body}}</div>`,
	))
}

// Sender implements dispatch.EmailTransport.
type Sender struct {
	providers     map[string]Provider
	defaultDriver string
	defaultFrom   business.EmailSettings
	logger        zerolog.Logger
}

func NewSender(defaultDriver string, defaultFrom business.EmailSettings, logger zerolog.Logger, providers ...Provider) *Sender {
	s := &Sender{
		providers:     make(map[string]Provider, len(providers)),
		defaultDriver: defaultDriver,
		defaultFrom:   defaultFrom,
		logger:        logger,
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

var _ dispatch.EmailTransport = (*Sender)(nil)

func (s *Sender) SendEmail(ctx context.Context, settings business.EmailSettings, msg dispatch.Email) error {
	driver := strings.ToLower(strings.TrimSpace(settings.Driver))
	if driver == "" {
		driver = s.defaultDriver
	}
	provider, ok := s.providers[driver]
	if !ok {
		return fmt.Errorf("mail driver %q is not supported", driver)
	}

	html, err := Layout(msg.Presentation, msg.Body)
	if err != nil {
		return err
	}

	env := Envelope{
		FromAddress: firstNonEmpty(settings.FromAddress, s.defaultFrom.FromAddress),
		FromName:    firstNonEmpty(settings.FromName, s.defaultFrom.FromName),
		To:          msg.To,
		Subject:     msg.Subject,
		HTML:        html,
	}
	if env.FromAddress == "" {
		return fmt.Errorf("no sender address configured for %s", provider.Name())
	}
	s.logger.Debug().Str("provider", provider.Name()).Str("presentation", msg.Presentation.String()).Msg("sending email")
	return provider.Send(ctx, settings, env)
}

// Layout wraps an already rendered HTML body in the customer or supplier
// presentation.
func Layout(t vocabulary.MessageType, body string) (string, error) {
	name := "customer"
	if t == vocabulary.Supplier {
		name = "supplier"
	}
	var buf bytes.Buffer
	if err := layouts.ExecuteTemplate(&buf, name, map[string]any{"Body": template.HTML(body)}); err != nil {
		return "", fmt.Errorf("layout %s email: %w", name, err)
	}
	return buf.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
