package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

// Telemetry owns the global tracer provider and its graceful shutdown.
//
// Packages obtain tracers through otel.Tracer; installing the provider
// here makes those tracers live. When disabled, the default no-op
// provider stays in place and spans cost nothing.
type Telemetry struct {
	config         Config
	tracerProvider *trace.TracerProvider
}

// New initializes trace export per config and installs the global
// provider and W3C propagator. A disabled config returns a no-op
// instance.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	exporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(newSampler(cfg.SamplingRate))),
	)
	t.tracerProvider = tp

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return t, nil
}

// newSampler picks a sampler for the configured rate.
func newSampler(rate float64) trace.Sampler {
	switch {
	case rate >= 1.0:
		return trace.AlwaysSample()
	case rate <= 0:
		return trace.NeverSample()
	default:
		return trace.TraceIDRatioBased(rate)
	}
}

// newTraceExporter builds the OTLP exporter for the configured transport.
func newTraceExporter(ctx context.Context, cfg Config) (trace.SpanExporter, error) {
	switch cfg.Protocol {
	case "http/protobuf":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default: // grpc
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{})))
		}
		return otlptracegrpc.New(ctx, opts...)
	}
}

// Shutdown flushes pending spans and stops the provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.tracerProvider == nil {
		return nil
	}
	return t.tracerProvider.Shutdown(ctx)
}
