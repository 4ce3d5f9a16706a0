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

type SESProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (p *SESProvider) Name() string { return "ses" }

func (p *SESProvider) Send(ctx context.Context, settings business.EmailSettings, env Envelope) error {
	payload := map[string]any{
		"from":    formatAddress(env.FromName, env.FromAddress),
		"to":      []string{env.To},
		"subject": env.Subject,
		"html":    env.HTML,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey(settings, p.APIKey))

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
		return fmt.Errorf("ses temporary error: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		return &PermanentError{Provider: p.Name(), Status: resp.Status}
	}
	return nil
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%q <%s>", name, addr)
}
