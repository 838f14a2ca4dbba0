// MetricObserver records operation duration and count metrics from log entries.
// Uses the OTel Metrics API with the operation name as the only attribute.
package oplog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricObserver records a duration histogram and a count per operation.
type MetricObserver struct {
	duration metric.Float64Histogram
	count    metric.Int64Counter
}

// NewMetricObserver creates a MetricObserver backed by the given MeterProvider.
func NewMetricObserver(mp metric.MeterProvider) (*MetricObserver, error) {
	meter := mp.Meter("flightstats-oplog")

	duration, err := meter.Float64Histogram("oplog.operation.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Logged operation duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	count, err := meter.Int64Counter("oplog.operation.count",
		metric.WithDescription("Number of logged operations"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricObserver{duration: duration, count: count}, nil
}

// Observe records the entry's duration and increments its operation count.
func (m *MetricObserver) Observe(e Entry) {
	attrs := metric.WithAttributes(attribute.String("operation.name", e.Operation))
	m.count.Add(context.Background(), 1, attrs)
	m.duration.Record(context.Background(), e.Micros()/1000, attrs)
}
