package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookSenderPostsMessage(t *testing.T) {
	var got webhookMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(WebhookConfig{URL: srv.URL, Token: "secret", SenderID: "CLINIC", CountryCode: "+91"})
	if err := s.Send(context.Background(), "9876543210", "Your appointment is confirmed"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.To != "+919876543210" || got.From != "CLINIC" || got.SentAt == "" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestWebhookSenderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhookSender(WebhookConfig{URL: srv.URL}).Send(context.Background(), "9876543210", "x"); err == nil {
		t.Fatalf("expected error on 502")
	}
	if err := NewWebhookSender(WebhookConfig{}).Send(context.Background(), "9876543210", "x"); err == nil {
		t.Fatalf("expected error without url")
	}
}

func TestE164(t *testing.T) {
	cases := []struct{ cc, in, want string }{
		{"91", "9876543210", "+919876543210"},
		{"91", "+447700900123", "+447700900123"},
		{"", "9876543210", "9876543210"},
	}
	for _, tc := range cases {
		if got := E164(tc.cc, tc.in); got != tc.want {
			t.Fatalf("E164(%q, %q) = %q, want %q", tc.cc, tc.in, got, tc.want)
		}
	}
}
