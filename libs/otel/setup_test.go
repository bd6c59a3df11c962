package otelx

import (
	"context"
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "off")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := ConfigFromEnv("booking-service")
	if cfg.Enabled {
		t.Fatalf("expected tracing disabled")
	}
	if cfg.SampleRatio != 0.25 {
		t.Fatalf("unexpected ratio %v", cfg.SampleRatio)
	}
	if cfg.Endpoint != "jaeger:4317" {
		t.Fatalf("unexpected endpoint %q", cfg.Endpoint)
	}
}

func TestConfigFromEnvIgnoresBadRatio(t *testing.T) {
	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	if got := ConfigFromEnv("x").SampleRatio; got != 1 {
		t.Fatalf("expected default ratio, got %v", got)
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false, ServiceName: "x"})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if tp, ts := TraceContextStrings(context.Background()); tp != "" || ts != "" {
		t.Fatalf("no span in context should yield empty trace context")
	}
}

func TestSetupRequiresEndpoint(t *testing.T) {
	if _, err := Setup(context.Background(), Config{Enabled: true, ServiceName: "x"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
