package apm

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/ksaito/crossarb/internal/logger"
)

// Provider selects the span exporter backend.
type Provider string

const (
	ZipkinProvider    Provider = "ZIPKIN_PROVIDER"
	CollectorProvider Provider = "COLLECTOR_PROVIDER"
	CollectorHTTP     Provider = "COLLECTOR_HTTP_PROVIDER"
	ConsoleProvider   Provider = "CONSOLE_PROVIDER"
	EmptyProvider     Provider = "EMPTY_PROVIDER"
)

// TraceProvider owns the installed tracer provider.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// TracerOptions collects exporter selection.
type TracerOptions struct {
	exporter sdktrace.SpanExporter
	name     string
	useEmpty bool
}

// TracerOption configures the trace provider.
type TracerOption func(*TracerOptions)

// WithProvider selects an exporter backend. Unknown providers fall back to
// the empty provider.
func WithProvider(provider Provider, log logger.LoggerInterface) TracerOption {
	switch provider {
	case ZipkinProvider:
		return useZipkin()
	case CollectorProvider:
		return useCollector()
	case CollectorHTTP:
		return useCollectorHTTP()
	case ConsoleProvider:
		return useConsole()
	}

	log.Warn(context.Background(), "trace provider not found, using empty provider",
		"provider", string(provider))
	return useEmpty()
}

func useEmpty() TracerOption {
	return func(o *TracerOptions) {
		o.useEmpty = true
		o.name = string(EmptyProvider)
	}
}

func useConsole() TracerOption {
	return func(o *TracerOptions) {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.name = string(ConsoleProvider)
	}
}

func useZipkin() TracerOption {
	return func(o *TracerOptions) {
		url := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

		exp, err := zipkin.New(url)
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.name = string(ZipkinProvider)
	}
}

func useCollector() TracerOption {
	return func(o *TracerOptions) {
		url := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(url),
		)
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.name = string(CollectorProvider)
	}
}

func useCollectorHTTP() TracerOption {
	return func(o *TracerOptions) {
		url := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

		exp, err := otlptracehttp.New(
			context.Background(),
			otlptracehttp.WithEndpointURL(url),
		)
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.name = string(CollectorHTTP)
	}
}

// NewTraceProvider installs a global tracer provider using the selected
// exporter and W3C propagation.
func NewTraceProvider(log logger.LoggerInterface, opts ...TracerOption) TraceProvider {
	options := &TracerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	res := resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))

	var tp *sdktrace.TracerProvider
	if options.useEmpty || options.exporter == nil {
		tp = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	} else {
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(options.exporter, sdktrace.WithBatchTimeout(5*time.Second)),
			sdktrace.WithResource(res),
		)
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(context.Background(), "trace provider installed", "provider", options.name)

	return &traceProvider{tp: tp}
}

// Stop flushes and shuts down the tracer provider.
func (p *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
