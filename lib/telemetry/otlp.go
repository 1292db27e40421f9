package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultMetricInterval = 15 * time.Second

var errNoEndpoint = errors.New("neither grpc_endpoint nor http_endpoint is set")

// otlpConnConfig points one signal at a collector, exactly one of the
// endpoints should be set. an entirely empty section disables the signal.
type otlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
	Insecure     bool              `json:"insecure"`
}

func (c otlpConnConfig) disabled() bool {
	return c.GrpcEndpoint == "" && c.HttpEndpoint == ""
}

func (c otlpConnConfig) validate() error {
	if c.GrpcEndpoint != "" && c.HttpEndpoint != "" {
		return fmt.Errorf("only one of grpc_endpoint (%s) and http_endpoint (%s) may be set", c.GrpcEndpoint, c.HttpEndpoint)
	}
	return nil
}

type otlpConfig struct {
	Traces  otlpConnConfig `json:"traces"`
	Metrics otlpConnConfig `json:"metrics"`
	// MetricInterval is a duration string, defaults to 15s.
	MetricInterval string `json:"metric_interval"`
}

type config struct {
	Otlp otlpConfig `json:"otlp"`
}

func (c config) validate() error {
	if c.Otlp.Traces.disabled() && c.Otlp.Metrics.disabled() {
		return fmt.Errorf("otlp: %w", errNoEndpoint)
	}
	if err := c.Otlp.Traces.validate(); err != nil {
		return fmt.Errorf("otlp traces: %w", err)
	}
	if err := c.Otlp.Metrics.validate(); err != nil {
		return fmt.Errorf("otlp metrics: %w", err)
	}
	_, err := c.metricInterval()
	return err
}

func (c config) metricInterval() (time.Duration, error) {
	if c.Otlp.MetricInterval == "" {
		return defaultMetricInterval, nil
	}
	interval, err := time.ParseDuration(c.Otlp.MetricInterval)
	if err != nil {
		return 0, fmt.Errorf("otlp metric_interval: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("otlp metric_interval must be positive, got %s", interval)
	}
	return interval, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// newTraceProvider returns nil when tracing is disabled.
func newTraceProvider(ctx context.Context, r *resource.Resource, c config) (*trace.TracerProvider, error) {
	if c.Otlp.Traces.disabled() {
		return nil, nil
	}
	exporter, err := newSpanExporter(ctx, c.Otlp.Traces)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newSpanExporter(ctx context.Context, c otlpConnConfig) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if c.GrpcEndpoint != "" {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpointURL(c.GrpcEndpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		}
		if c.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(c.HttpEndpoint),
		otlptracehttp.WithHeaders(c.Headers),
	}
	if c.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

// newMetricProvider returns nil when metrics are disabled.
func newMetricProvider(ctx context.Context, r *resource.Resource, c config) (*metric.MeterProvider, error) {
	if c.Otlp.Metrics.disabled() {
		return nil, nil
	}
	interval, err := c.metricInterval()
	if err != nil {
		return nil, err
	}
	exporter, err := newMetricExporter(ctx, c.Otlp.Metrics)
	if err != nil {
		return nil, err
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}

func newMetricExporter(ctx context.Context, c otlpConnConfig) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if c.GrpcEndpoint != "" {
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(c.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		}
		if c.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(c.HttpEndpoint),
		otlpmetrichttp.WithHeaders(c.Headers),
	}
	if c.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}
