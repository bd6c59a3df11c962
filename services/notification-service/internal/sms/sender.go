package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sender delivers one text message. ProviderID names the channel in the notifications log.
type Sender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

type WebhookConfig struct {
	URL   string
	Token string
	// SenderID is the registered alphanumeric header shown to the patient.
	SenderID string
	// CountryCode is prefixed to bare 10 digit national numbers, e.g. "91".
	CountryCode string
	Timeout     time.Duration
}

// WebhookSender posts messages to an SMS gateway that accepts a JSON webhook.
type WebhookSender struct {
	cfg  WebhookConfig
	http *http.Client
}

type webhookMessage struct {
	To     string `json:"to"`
	From   string `json:"from,omitempty"`
	Body   string `json:"body"`
	SentAt string `json:"sent_at"`
}

func NewWebhookSender(cfg WebhookConfig) *WebhookSender {
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.CountryCode = strings.TrimPrefix(strings.TrimSpace(cfg.CountryCode), "+")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &WebhookSender{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (s *WebhookSender) ProviderID() string {
	return "sms-webhook"
}

// E164 turns a national mobile number into +<country><number>. Numbers that already
// carry a '+' are returned unchanged.
func E164(countryCode, mobile string) string {
	mobile = strings.TrimSpace(mobile)
	if strings.HasPrefix(mobile, "+") || countryCode == "" {
		return mobile
	}
	return "+" + countryCode + mobile
}

func (s *WebhookSender) Send(ctx context.Context, to string, body string) error {
	if s.cfg.URL == "" {
		return errors.New("sms webhook url not configured")
	}
	raw, err := json.Marshal(webhookMessage{
		To:     E164(s.cfg.CountryCode, to),
		From:   s.cfg.SenderID,
		Body:   body,
		SentAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NoopSender accepts every message. It is the default when no SMS gateway is configured.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "sms-noop"
}

func (s *NoopSender) Send(context.Context, string, string) error {
	return nil
}
