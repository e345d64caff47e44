package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordDispatchAndDeliveries(t *testing.T) {
	reader := metric.NewManualReader()
	o := newWithReader("test", reader)
	defer o.Shutdown()

	ctx := context.Background()
	o.RecordDispatch(ctx, 25*time.Millisecond, "dispatched")
	o.RecordDispatch(ctx, 5*time.Millisecond, "skipped")
	o.RecordDeliveries(ctx, 3, 1)

	got := collect(t, reader)

	processed, ok := got["dispatch.processed"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range processed.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	deliveries, ok := got["dispatch.deliveries"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var sent, failed int64
	for _, dp := range deliveries.DataPoints {
		v, _ := dp.Attributes.Value("result")
		switch v.AsString() {
		case "sent":
			sent = dp.Value
		case "failed":
			failed = dp.Value
		}
	}
	assert.Equal(t, int64(3), sent)
	assert.Equal(t, int64(1), failed)

	assert.Contains(t, got, "dispatch.duration")
}

func TestNilAndNoopAreSafe(t *testing.T) {
	var nilObs *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		nilObs.RecordDispatch(ctx, time.Second, "failed")
		nilObs.RecordDeliveries(ctx, 1, 1)
		nilObs.Shutdown()

		noop := NewNoop()
		noop.RecordDispatch(ctx, time.Second, "failed")
		noop.RecordDeliveries(ctx, 1, 1)
		noop.Shutdown()
	})
}
