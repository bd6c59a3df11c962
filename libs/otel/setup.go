package otelx

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
)

const namespace = "clinicslots"

type Config struct {
	Enabled     bool
	ServiceName string
	Environment string
	// Endpoint is the collector's OTLP/gRPC host:port.
	Endpoint    string
	SampleRatio float64
	// ExportTimeout bounds one batch export; zero means 3s.
	ExportTimeout time.Duration
}

func ConfigFromEnv(serviceName string) Config {
	return Config{
		Enabled:       config.Bool("OTEL_ENABLED", true),
		ServiceName:   serviceName,
		Environment:   config.String("CLINIC_ENV", "dev"),
		Endpoint:      config.String("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		SampleRatio:   config.Ratio("OTEL_SAMPLING_RATIO", 1),
		ExportTimeout: config.Duration("OTEL_EXPORT_TIMEOUT", 3*time.Second),
	}
}

// Setup installs W3C trace-context and baggage propagation and, when enabled, a batching
// tracer provider exporting to the collector. The returned func flushes and stops it.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("otel: tracing enabled without an exporter endpoint")
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = 3 * time.Second
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceNamespace(namespace),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithTimeout(cfg.ExportTimeout),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
