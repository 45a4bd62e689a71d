package metrics

import (
	"context"
	"testing"
)

func TestNoopMetricsSvcSatisfiesInterface(t *testing.T) {
	var svc MetricsSvc = NewNoopMetricsSvc()
	svc.Increment(ImageScanned, nil)
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
