package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestSyncMetrics_RecordSync(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewSyncMetrics(mp.Meter("storesync-test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSync(ctx, "shopify", OutcomeSuccess, 2*time.Second, 12, 3)
	m.RecordSync(ctx, "shopify", OutcomeSuccess, time.Second, 4, 1)
	m.RecordSync(ctx, "shopify", "upstream_error", 500*time.Millisecond, 99, 99)

	metrics := collect(t, reader)

	assert.EqualValues(t, 2, sumFor(t, metrics["storesync.syncs"],
		AttrPlatform.String("shopify"), AttrOutcome.String(OutcomeSuccess)))
	assert.EqualValues(t, 1, sumFor(t, metrics["storesync.syncs"],
		AttrPlatform.String("shopify"), AttrOutcome.String("upstream_error")))
	assert.EqualValues(t, 16, sumFor(t, metrics["storesync.orders.synced"], AttrPlatform.String("shopify")))
	assert.EqualValues(t, 4, sumFor(t, metrics["storesync.metric_days.synced"], AttrPlatform.String("shopify")))

	hist, ok := metrics["storesync.sync.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.EqualValues(t, 3, count)
}

func TestSyncMetrics_NilIsNoop(t *testing.T) {
	var m *SyncMetrics
	assert.NotPanics(t, func() {
		m.RecordSync(context.Background(), "woocommerce", OutcomeSuccess, time.Second, 1, 1)
	})
}
