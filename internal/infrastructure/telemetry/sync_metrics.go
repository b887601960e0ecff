package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutcomeSuccess is the outcome label of a sync that persisted its results
const OutcomeSuccess = "success"

// Metric attribute keys
var (
	AttrPlatform = attribute.Key("platform")
	AttrOutcome  = attribute.Key("outcome")
)

// syncDurationBuckets covers a single fast page up to a long paginated fetch (seconds)
var syncDurationBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// SyncMetrics records per-integration sync outcomes. A nil *SyncMetrics is
// valid and records nothing.
type SyncMetrics struct {
	syncs    metric.Int64Counter
	duration metric.Float64Histogram
	orders   metric.Int64Counter
	days     metric.Int64Counter
}

// NewSyncMetrics registers the sync instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	var (
		m   SyncMetrics
		err error
	)
	if m.syncs, err = meter.Int64Counter("storesync.syncs",
		metric.WithDescription("Integration syncs by platform and outcome"),
		metric.WithUnit("{sync}"),
	); err != nil {
		return nil, fmt.Errorf("register storesync.syncs: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("storesync.sync.duration",
		metric.WithDescription("Wall time of one integration sync"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(syncDurationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("register storesync.sync.duration: %w", err)
	}
	if m.orders, err = meter.Int64Counter("storesync.orders.synced",
		metric.WithDescription("Orders fetched and upserted"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, fmt.Errorf("register storesync.orders.synced: %w", err)
	}
	if m.days, err = meter.Int64Counter("storesync.metric_days.synced",
		metric.WithDescription("Daily metric buckets upserted"),
		metric.WithUnit("{day}"),
	); err != nil {
		return nil, fmt.Errorf("register storesync.metric_days.synced: %w", err)
	}
	return &m, nil
}

// RecordSync records one finished sync. orders and days are only added for
// successful syncs.
func (m *SyncMetrics) RecordSync(ctx context.Context, platform, outcome string, elapsed time.Duration, orders, days int) {
	if m == nil {
		return
	}
	both := metric.WithAttributes(AttrPlatform.String(platform), AttrOutcome.String(outcome))
	m.syncs.Add(ctx, 1, both)
	m.duration.Record(ctx, elapsed.Seconds(), both)
	if outcome == OutcomeSuccess {
		byPlatform := metric.WithAttributes(AttrPlatform.String(platform))
		m.orders.Add(ctx, int64(orders), byPlatform)
		m.days.Add(ctx, int64(days), byPlatform)
	}
}
