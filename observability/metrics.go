package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName scopes the pipeline instruments.
const MeterName = "venue-radar/pipeline"

// Metrics holds the pipeline instruments. A nil *Metrics records nothing.
type Metrics struct {
	batchesDelivered metric.Int64Counter
	retries          metric.Int64Counter
	failures         metric.Int64Counter
	ratings          metric.Int64Counter
	batchSize        metric.Int64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	batchesDelivered, err := meter.Int64Counter("venues.batches.delivered",
		metric.WithDescription("Venue batches delivered to the sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating venues.batches.delivered counter: %w", err)
	}

	retries, err := meter.Int64Counter("venues.pipeline.retries",
		metric.WithDescription("Pipeline restarts after a failed run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating venues.pipeline.retries counter: %w", err)
	}

	failures, err := meter.Int64Counter("venues.pipeline.failures",
		metric.WithDescription("Pipeline failures delivered after retries were exhausted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating venues.pipeline.failures counter: %w", err)
	}

	ratings, err := meter.Int64Counter("venues.ratings",
		metric.WithDescription("Rating lookups by terminal status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating venues.ratings counter: %w", err)
	}

	batchSize, err := meter.Int64Histogram("venues.batch.size",
		metric.WithDescription("Number of venues per delivered batch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating venues.batch.size histogram: %w", err)
	}

	return &Metrics{
		batchesDelivered: batchesDelivered,
		retries:          retries,
		failures:         failures,
		ratings:          ratings,
		batchSize:        batchSize,
	}, nil
}

// NewGlobalMetrics creates the instruments on the global meter provider.
func NewGlobalMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(MeterName))
}

func (m *Metrics) RecordBatchDelivered(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.batchesDelivered.Add(ctx, 1)
	m.batchSize.Record(ctx, int64(size))
}

func (m *Metrics) RecordRetry(ctx context.Context) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1)
}

func (m *Metrics) RecordFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1)
}

// RecordRating counts a rating lookup that ended in status.
func (m *Metrics) RecordRating(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.ratings.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
