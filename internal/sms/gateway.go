// Package sms sends text messages through the HTTP gateway configured in a
// business' SMS settings.
package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/dispatch"
)

var ErrNotConfigured = errors.New("sms gateway is not configured")

// maxParams bounds the static key/value pairs taken from settings.
const maxParams = 10

type Gateway struct {
	Client *http.Client
}

var _ dispatch.SMSTransport = (*Gateway)(nil)

func (g *Gateway) SendSMS(ctx context.Context, settings business.SMSSettings, phone, body string) error {
	if !settings.Configured() {
		return ErrNotConfigured
	}
	req, err := buildRequest(ctx, settings, phone, body)
	if err != nil {
		return err
	}

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}

func buildRequest(ctx context.Context, settings business.SMSSettings, phone, body string) (*http.Request, error) {
	params := url.Values{}
	used := 0
	for _, p := range settings.Params {
		if strings.TrimSpace(p.Key) == "" {
			continue
		}
		if used == maxParams {
			break
		}
		params.Set(p.Key, p.Value)
		used++
	}
	params.Set(settings.SendToParamName, phone)
	params.Set(settings.MsgParamName, body)

	if strings.EqualFold(settings.RequestMethod, http.MethodPost) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.URL, strings.NewReader(params.Encode()))
		if err != nil {
			return nil, fmt.Errorf("build sms request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	u, err := url.Parse(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("parse sms url: %w", err)
	}
	query := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			query.Set(k, v)
		}
	}
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build sms request: %w", err)
	}
	return req, nil
}
