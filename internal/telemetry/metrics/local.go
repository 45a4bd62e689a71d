package metrics

import (
	"context"
)

// NoopMetricsSvc discards every measurement.
type NoopMetricsSvc struct{}

func NewNoopMetricsSvc() *NoopMetricsSvc {
	return &NoopMetricsSvc{}
}

func (n *NoopMetricsSvc) Increment(MetricName, map[string]string) {}

func (n *NoopMetricsSvc) Shutdown(context.Context) error {
	return nil
}
