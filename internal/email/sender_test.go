package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/dispatch"
	"github.com/example/pos-notifier/internal/vocabulary"
)

type recordingProvider struct {
	name string
	sent []Envelope
}

func (p *recordingProvider) Name() string { return p.name }

func (p *recordingProvider) Send(_ context.Context, _ business.EmailSettings, env Envelope) error {
	p.sent = append(p.sent, env)
	return nil
}

func TestLayout(t *testing.T) {
	customer, err := Layout(vocabulary.Customer, "<b>Hi</b>")
	require.NoError(t, err)
	assert.Equal(t, `<div class="notification notification-customer"><b>Hi</b></div>`, customer)

	supplier, err := Layout(vocabulary.Supplier, "<b>Hi</b>")
	require.NoError(t, err)
	assert.Equal(t, `<div class="notification notification-supplier"><b>Hi</b></div>`, supplier)
}

func TestSenderSelectsDriver(t *testing.T) {
	smtp := &recordingProvider{name: "smtp"}
	sendgrid := &recordingProvider{name: "sendgrid"}
	s := NewSender("smtp", business.EmailSettings{FromAddress: "noreply@pos.local", FromName: "POS"}, zerolog.Nop(), smtp, sendgrid)

	msg := dispatch.Email{To: "a@example.com", Subject: "S", Body: "B", Presentation: vocabulary.Supplier}

	require.NoError(t, s.SendEmail(context.Background(), business.EmailSettings{}, msg))
	require.Len(t, smtp.sent, 1)
	assert.Equal(t, "noreply@pos.local", smtp.sent[0].FromAddress)
	assert.Contains(t, smtp.sent[0].HTML, "notification-supplier")

	require.NoError(t, s.SendEmail(context.Background(), business.EmailSettings{Driver: "SendGrid", FromAddress: "shop@example.com"}, msg))
	require.Len(t, sendgrid.sent, 1)
	assert.Equal(t, "shop@example.com", sendgrid.sent[0].FromAddress)

	err := s.SendEmail(context.Background(), business.EmailSettings{Driver: "mailgun"}, msg)
	assert.Error(t, err)
}

func TestSenderRequiresFromAddress(t *testing.T) {
	s := NewSender("smtp", business.EmailSettings{}, zerolog.Nop(), &recordingProvider{name: "smtp"})
	err := s.SendEmail(context.Background(), business.EmailSettings{}, dispatch.Email{To: "a@example.com"})
	assert.Error(t, err)
}

func TestSendGridProvider(t *testing.T) {
	payloads := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		payloads <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := &SendGridProvider{Endpoint: srv.URL, APIKey: "key-1"}
	err := p.Send(context.Background(), business.EmailSettings{}, Envelope{FromAddress: "f@x", To: "t@x", Subject: "S", HTML: "<p>H</p>"})
	require.NoError(t, err)
	got := <-payloads
	assert.Equal(t, "S", got["subject"])
}

func statusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "business-key", r.Header.Get("X-API-Key"))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProviderErrorClassification(t *testing.T) {
	settings := business.EmailSettings{Password: "business-key"}
	var perm *PermanentError

	p := &SESProvider{Endpoint: statusServer(t, http.StatusBadRequest).URL, APIKey: "service-key"}
	err := p.Send(context.Background(), settings, Envelope{To: "t@x"})
	require.True(t, errors.As(err, &perm))
	assert.Equal(t, "ses", perm.Provider)

	p = &SESProvider{Endpoint: statusServer(t, http.StatusBadGateway).URL, APIKey: "service-key"}
	err = p.Send(context.Background(), settings, Envelope{To: "t@x"})
	require.Error(t, err)
	assert.False(t, errors.As(err, &perm))

	p = &SESProvider{Endpoint: statusServer(t, http.StatusOK).URL}
	assert.NoError(t, p.Send(context.Background(), settings, Envelope{To: "t@x"}))
}

func TestSMTPProviderRequiresHost(t *testing.T) {
	p := &SMTPProvider{}
	err := p.Send(context.Background(), business.EmailSettings{}, Envelope{FromAddress: "f@x", To: "t@x"})
	assert.EqualError(t, err, "smtp host is not configured")
}

func TestMergeSettings(t *testing.T) {
	fallback := business.EmailSettings{Host: "smtp.service", Port: 587, FromAddress: "svc@x"}

	assert.Equal(t, fallback, mergeSettings(business.EmailSettings{Driver: "smtp"}, fallback))

	own := mergeSettings(business.EmailSettings{Host: "smtp.shop", Port: 465}, fallback)
	assert.Equal(t, "smtp.shop", own.Host)
	assert.Equal(t, "svc@x", own.FromAddress)
}

func TestSMTPRelayUsesServiceSender(t *testing.T) {
	p := &SMTPProvider{Fallback: business.EmailSettings{Host: "smtp.service", FromAddress: "svc@x"}}
	env := Envelope{FromAddress: "owner@shop.test", FromName: "Corner Bistro", To: "t@x"}

	s, got := p.route(business.EmailSettings{FromAddress: "owner@shop.test"}, env)
	assert.Equal(t, "smtp.service", s.Host)
	assert.Equal(t, "svc@x", got.FromAddress)
	assert.Equal(t, "Corner Bistro", got.FromName)

	s, got = p.route(business.EmailSettings{Host: "smtp.shop", FromAddress: "owner@shop.test"}, env)
	assert.Equal(t, "smtp.shop", s.Host)
	assert.Equal(t, "owner@shop.test", got.FromAddress)
}
