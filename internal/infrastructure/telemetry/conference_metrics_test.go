package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*ConferenceMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewConferenceMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// counterValue sums the data points of a counter whose attributes contain attrs
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasAttributes(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttributes(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestNewConferenceMetrics_NilMeter(t *testing.T) {
	m, err := NewConferenceMetrics(nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestConferenceMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("counts staging outcomes", func(t *testing.T) {
		m, reader := newTestMetrics(t)
		m.RecordInvoicesStaged(ctx, 3, 1, 0)

		assert.Equal(t, int64(4), counterValue(t, reader, "checkmaster_invoices_staged_total"))
		assert.Equal(t, int64(3), counterValue(t, reader, "checkmaster_invoices_staged_total", attribute.String("outcome", "accepted")))
		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_invoices_staged_total", attribute.String("outcome", "duplicate")))
	})

	t.Run("counts finalization outcomes", func(t *testing.T) {
		m, reader := newTestMetrics(t)
		m.RecordApproved(ctx, true)
		m.RecordSubmitted(ctx, 2)
		m.RecordApproved(ctx, false)

		assert.Equal(t, int64(2), counterValue(t, reader, "checkmaster_finalizations_total"))
		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_finalizations_total", attribute.String("outcome", "approved")))
		assert.Equal(t, int64(2), counterValue(t, reader, "checkmaster_divergent_items_total"))
		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_approvals_total", attribute.String("mode", "supervisor")))
		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_approvals_total", attribute.String("mode", "automatic")))
	})

	t.Run("counts scans and queue operations", func(t *testing.T) {
		m, reader := newTestMetrics(t)
		m.RecordBatchStarted(ctx)
		m.RecordScan(ctx)
		m.RecordScan(ctx)
		m.RecordRejected(ctx)
		m.RecordQueueOperation(ctx, QueueOperationPause)
		m.RecordQueueOperation(ctx, QueueOperationResume)

		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_batches_started_total"))
		assert.Equal(t, int64(2), counterValue(t, reader, "checkmaster_scans_total"))
		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_rejections_total"))
		assert.Equal(t, int64(1), counterValue(t, reader, "checkmaster_queue_operations_total", attribute.String("operation", "pause")))
	})
}
