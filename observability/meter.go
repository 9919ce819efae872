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

	"github.com/kbukum/speechkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
// Setup builds it from MetricsConfig.
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

	logger.Get("observability").Info("meter initialized", logger.Fields(
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

// Metrics holds the instruments recorded around transcription calls.
type Metrics struct {
	transcriptions       metric.Int64Counter
	transcriptionSeconds metric.Float64Histogram
	active               metric.Int64UpDownCounter
	progressChunks       metric.Int64Counter
	progressBytes        metric.Int64Counter
	errors               metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transcriptions, err := meter.Int64Counter("transcription.total",
		metric.WithDescription("Completed transcription calls by backend and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.total counter: %w", err)
	}

	transcriptionSeconds, err := meter.Float64Histogram("transcription.duration",
		metric.WithDescription("Wall time of transcription calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("transcription.active",
		metric.WithDescription("Transcription calls in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.active gauge: %w", err)
	}

	progressChunks, err := meter.Int64Counter("transcription.progress.chunks",
		metric.WithDescription("Recognizer output chunks delivered as progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.progress.chunks counter: %w", err)
	}

	progressBytes, err := meter.Int64Counter("transcription.progress.bytes",
		metric.WithDescription("Recognizer output bytes read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.progress.bytes counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("transcription.errors",
		metric.WithDescription("Failed transcription calls by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.errors counter: %w", err)
	}

	return &Metrics{
		transcriptions:       transcriptions,
		transcriptionSeconds: transcriptionSeconds,
		active:               active,
		progressChunks:       progressChunks,
		progressBytes:        progressBytes,
		errors:               errorTotal,
	}, nil
}

// RecordStart increments the in-flight count for backend.
func (m *Metrics) RecordStart(ctx context.Context, backend string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordTranscription decrements the in-flight count and records a finished call.
func (m *Metrics) RecordTranscription(ctx context.Context, backend, status string, duration time.Duration) {
	m.active.Add(ctx, -1, metric.WithAttributes(attribute.String("backend", backend)))
	m.transcriptions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
	))
	m.transcriptionSeconds.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("backend", backend),
	))
}

// RecordChunk records one recognizer output chunk of n bytes.
func (m *Metrics) RecordChunk(ctx context.Context, backend string, n int) {
	attrs := metric.WithAttributes(attribute.String("backend", backend))
	m.progressChunks.Add(ctx, 1, attrs)
	m.progressBytes.Add(ctx, int64(n), attrs)
}

// RecordError records a failure by error code and backend.
func (m *Metrics) RecordError(ctx context.Context, code, backend string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("backend", backend),
	))
}
