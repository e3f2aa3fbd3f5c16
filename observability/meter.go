package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/apiguard/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ClientMetrics holds the instruments of outbound API requests.
type ClientMetrics struct {
	requests    metric.Int64Counter
	duration    metric.Float64Histogram
	inFlight    metric.Int64UpDownCounter
	retries     metric.Int64Counter
	rateLimited metric.Int64Counter
}

// NewClientMetrics creates metric instruments on the given meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	requests, err := meter.Int64Counter("apiguard.requests",
		metric.WithDescription("Attempts sent to the API, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apiguard.requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram("apiguard.request.duration",
		metric.WithDescription("Duration of attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apiguard.request.duration histogram: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("apiguard.requests.active",
		metric.WithDescription("Number of attempts in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apiguard.requests.active gauge: %w", err)
	}

	retries, err := meter.Int64Counter("apiguard.retries",
		metric.WithDescription("Retries scheduled after a failed attempt"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apiguard.retries counter: %w", err)
	}

	rateLimited, err := meter.Int64Counter("apiguard.rate_limited",
		metric.WithDescription("Requests refused by the client-side rate limiter"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apiguard.rate_limited counter: %w", err)
	}

	return &ClientMetrics{
		requests:    requests,
		duration:    duration,
		inFlight:    inFlight,
		retries:     retries,
		rateLimited: rateLimited,
	}, nil
}

// Start increments the in-flight count and returns a func that decrements it.
func (m *ClientMetrics) Start(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Add(ctx, 1)
	return func() { m.inFlight.Add(ctx, -1) }
}

// RecordAttempt records a completed attempt. status is 0 when no response
// arrived; kind is empty on success.
func (m *ClientMetrics) RecordAttempt(ctx context.Context, method string, status int, kind string, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if kind != "" {
		outcome = kind
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
	))
}

// RecordRetry records a scheduled retry.
func (m *ClientMetrics) RecordRetry(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordRateLimited records a request refused by the limiter.
func (m *ClientMetrics) RecordRateLimited(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}
