package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "run-resize"

// OtelOptions configures the OTLP exporter.
type OtelOptions struct {
	// Collector gRPC address, host:port
	Endpoint string

	// Zero means the default of 10s. Shutdown always flushes.
	ExportInterval time.Duration
}

type OtelMetricsSvc struct {
	counters map[MetricName]metric.Int64Counter
	provider *sdkmetric.MeterProvider
	conn     *grpc.ClientConn
}

var counterDefs = []struct {
	name MetricName
	desc string
	unit string
}{
	{ImageScanned, "Recognized image files found", "{image}"},
	{SourceConverted, "Source images that needed at least one output", "{image}"},
	{OutputWritten, "Resized output files written", "{file}"},
}

func NewOtelMetricsSvc(ctx context.Context, opts OtelOptions) (*OtelMetricsSvc, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("OpenTelemetry collector endpoint is empty")
	}
	if opts.ExportInterval <= 0 {
		opts.ExportInterval = 10 * time.Second
	}
	slog.Debug("Initializing OpenTelemetry", "endpoint", opts.Endpoint)

	conn, err := grpc.NewClient(
		opts.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	provider, err := newMeterProvider(ctx, conn, opts.ExportInterval)
	if err != nil {
		conn.Close()
		return nil, err
	}
	otel.SetMeterProvider(provider)

	svc := &OtelMetricsSvc{
		counters: make(map[MetricName]metric.Int64Counter, len(counterDefs)),
		provider: provider,
		conn:     conn,
	}
	meter := provider.Meter(meterName)
	for _, def := range counterDefs {
		counter, err := meter.Int64Counter(
			string(def.name),
			metric.WithDescription(def.desc),
			metric.WithUnit(def.unit),
		)
		if err != nil {
			_ = svc.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create counter %s: %w", def.name, err)
		}
		svc.counters[def.name] = counter
	}
	return svc, nil
}

func newMeterProvider(
	ctx context.Context,
	conn *grpc.ClientConn,
	interval time.Duration,
) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(meterName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource for OpenTelemetry: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(interval),
		)),
	), nil
}

func (s *OtelMetricsSvc) Increment(metricName MetricName, attrs map[string]string) {
	counter, ok := s.counters[metricName]
	if !ok {
		slog.Warn("Unknown metric name", "metricName", metricName)
		return
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	counter.Add(context.Background(), 1, metric.WithAttributes(kvs...))
}

// Shutdown flushes pending metrics, then closes the collector connection.
func (s *OtelMetricsSvc) Shutdown(ctx context.Context) error {
	err := s.provider.Shutdown(ctx)
	if cerr := s.conn.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("OpenTelemetry shutdown: %w", err)
	}

	slog.Debug("OpenTelemetry services shutdown successfully")
	return nil
}
