package instrumentation

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

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

// sumPoints returns the data points of the named int64 sum.
func sumPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			return sum.DataPoints
		}
	}
	return nil
}

func attrValue(set attribute.Set, key string) string {
	v, _ := set.Value(attribute.Key(key))
	return v.AsString()
}

func TestMetrics_RecordCall(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.CallStarted(ctx, "GET")
	m.RecordCall(ctx, "GET", "lists/abc/tasks", OutcomeSuccess, 120*time.Millisecond)

	points := sumPoints(t, reader, "tasks_api_calls_total")
	require.Len(t, points, 1)
	assert.Equal(t, int64(1), points[0].Value)
	assert.Equal(t, "GET", attrValue(points[0].Attributes, attrMethod))
	assert.Equal(t, "lists/{id}/tasks", attrValue(points[0].Attributes, attrFunction))
	assert.Equal(t, OutcomeSuccess, attrValue(points[0].Attributes, attrOutcome))

	inFlight := sumPoints(t, reader, "tasks_api_calls_in_flight")
	require.Len(t, inFlight, 1)
	assert.Equal(t, int64(0), inFlight[0].Value)
}

func TestMetrics_RecordCall_DetailedLabels(t *testing.T) {
	m, reader := newTestMetrics(t, true)

	m.RecordCall(context.Background(), "DELETE", "users/@me/lists/abc", OutcomePermissionDenied, time.Millisecond)

	points := sumPoints(t, reader, "tasks_api_calls_total")
	require.Len(t, points, 1)
	assert.Equal(t, "users/@me/lists/abc", attrValue(points[0].Attributes, attrFunction))
}

func TestMetrics_RecordSync(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordSync(ctx, "google", StatusSuccess, time.Second)
	m.RecordSync(ctx, "google", StatusSuccess, time.Second)
	m.RecordSync(ctx, "google", StatusError, time.Second)

	points := sumPoints(t, reader, "source_syncs_total")
	require.Len(t, points, 2)

	byStatus := map[string]int64{}
	for _, p := range points {
		byStatus[attrValue(p.Attributes, attrStatus)] = p.Value
	}
	assert.Equal(t, int64(2), byStatus[StatusSuccess])
	assert.Equal(t, int64(1), byStatus[StatusError])
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()

	var m Metrics
	m.CallStarted(ctx, "GET")
	m.RecordCall(ctx, "GET", "users/@me/lists", OutcomeTransport, time.Second)
	m.RecordSync(ctx, "mock", StatusSuccess, time.Second)

	var nilMetrics *Metrics
	nilMetrics.CallStarted(ctx, "GET")
	nilMetrics.RecordCall(ctx, "GET", "users/@me/lists", OutcomeCancelled, time.Second)
}
