package telemetry

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/giobyte8/run-resize/internal/telemetry/metrics"
)

// TelemetrySvc carries the per-run identity and the metrics sink.
type TelemetrySvc struct {
	runID   uuid.UUID
	metrics metrics.MetricsSvc
}

// NewTelemetrySvc reads OTEL_ENABLED and OTEL_COLLECTOR_GRPC_ENDPOINT. Without
// OTEL_ENABLED=true metrics are discarded.
func NewTelemetrySvc(ctx context.Context) (*TelemetrySvc, error) {
	if !strings.EqualFold(os.Getenv("OTEL_ENABLED"), "true") {
		return NewWithMetrics(metrics.NewNoopMetricsSvc()), nil
	}

	otelSvc, err := metrics.NewOtelMetricsSvc(ctx, metrics.OtelOptions{
		Endpoint: os.Getenv("OTEL_COLLECTOR_GRPC_ENDPOINT"),
	})
	if err != nil {
		return nil, err
	}
	return NewWithMetrics(otelSvc), nil
}

func NewWithMetrics(metricsSvc metrics.MetricsSvc) *TelemetrySvc {
	return &TelemetrySvc{
		runID:   uuid.New(),
		metrics: metricsSvc,
	}
}

// RunID identifies the current invocation in logs and metric attributes.
func (t *TelemetrySvc) RunID() uuid.UUID { return t.runID }

func (t *TelemetrySvc) Metrics() metrics.MetricsSvc { return t.metrics }

func (t *TelemetrySvc) Shutdown(ctx context.Context) error {
	return t.metrics.Shutdown(ctx)
}
