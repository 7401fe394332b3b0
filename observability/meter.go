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

	"github.com/kbukum/tilefilter/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
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

	res, err := newResource(config.ServiceName, config.ServiceVersion)
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

// Metrics holds the instruments recorded per filter invocation and per tile.
type Metrics struct {
	invocationTotal    metric.Int64Counter
	invocationDuration metric.Float64Histogram
	invocationActive   metric.Int64UpDownCounter
	featuresIn         metric.Int64Counter
	featuresOut        metric.Int64Counter
	valuesSkipped      metric.Int64Counter
	errorTotal         metric.Int64Counter
	tileTotal          metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.invocationTotal, err = meter.Int64Counter("filter.invocations",
		metric.WithDescription("Filter invocations by layer and status"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.invocations counter: %w", err)
	}
	if m.invocationDuration, err = meter.Float64Histogram("filter.duration",
		metric.WithDescription("Duration of filter invocations in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.duration histogram: %w", err)
	}
	if m.invocationActive, err = meter.Int64UpDownCounter("filter.active",
		metric.WithDescription("Filter processes currently running"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.active gauge: %w", err)
	}
	if m.featuresIn, err = meter.Int64Counter("filter.features.in",
		metric.WithDescription("Features written to filters"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.features.in counter: %w", err)
	}
	if m.featuresOut, err = meter.Int64Counter("filter.features.out",
		metric.WithDescription("Features read back from filters"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.features.out counter: %w", err)
	}
	if m.valuesSkipped, err = meter.Int64Counter("filter.values.skipped",
		metric.WithDescription("Filter output values that were not features"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.values.skipped counter: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("filter.errors",
		metric.WithDescription("Filter errors by code"),
	); err != nil {
		return nil, fmt.Errorf("creating filter.errors counter: %w", err)
	}
	if m.tileTotal, err = meter.Int64Counter("tiles.processed",
		metric.WithDescription("Tiles processed by status"),
	); err != nil {
		return nil, fmt.Errorf("creating tiles.processed counter: %w", err)
	}
	return &m, nil
}

// RecordStart increments the running filter count.
func (m *Metrics) RecordStart(ctx context.Context) {
	m.invocationActive.Add(ctx, 1)
}

// RecordEnd decrements the running count and records the finished invocation.
func (m *Metrics) RecordEnd(ctx context.Context, layer, status string, duration time.Duration) {
	m.invocationActive.Add(ctx, -1)
	m.invocationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("layer", layer),
		attribute.String("status", status),
	))
	m.invocationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("layer", layer),
	))
}

// RecordFeatures records feature and skipped value counts of an invocation.
func (m *Metrics) RecordFeatures(ctx context.Context, layer string, in, out, skipped int) {
	attrs := metric.WithAttributes(attribute.String("layer", layer))
	m.featuresIn.Add(ctx, int64(in), attrs)
	m.featuresOut.Add(ctx, int64(out), attrs)
	m.valuesSkipped.Add(ctx, int64(skipped), attrs)
}

// RecordError records an error by code and layer.
func (m *Metrics) RecordError(ctx context.Context, code, layer string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("layer", layer),
	))
}

// RecordTile records a processed tile ("ok", "skipped", "failed").
func (m *Metrics) RecordTile(ctx context.Context, status string) {
	m.tileTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
