package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/pos-notifier/internal/business"
)

type SendGridProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (p *SendGridProvider) Name() string { return "sendgrid" }

func (p *SendGridProvider) Send(ctx context.Context, settings business.EmailSettings, env Envelope) error {
	payload := map[string]any{
		"personalizations": []any{
			map[string]any{"to": []any{map[string]string{"email": env.To}}},
		},
		"from":    map[string]string{"email": env.FromAddress, "name": env.FromName},
		"subject": env.Subject,
		"content": []any{map[string]string{"type": "text/html", "value": env.HTML}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey(settings, p.APIKey))

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("sendgrid temporary error: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		return &PermanentError{Provider: p.Name(), Status: resp.Status}
	}
	return nil
}

// apiKey prefers a key stored in the business mail settings over the
// service-wide one.
func apiKey(settings business.EmailSettings, fallback string) string {
	if settings.Password != "" {
		return settings.Password
	}
	return fallback
}
