package metrics

import (
	"context"
)

// Custom type to represent a metric name,
// providing a type-safe way to handle metric names.
type MetricName string

const (
	ImageScanned    MetricName = "resize.image.scanned"
	SourceConverted MetricName = "resize.source.converted"
	OutputWritten   MetricName = "resize.output.written"
)

type MetricsSvc interface {
	Increment(metric MetricName, attrs map[string]string)
	Shutdown(ctx context.Context) error
}
