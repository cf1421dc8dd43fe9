package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/registry"
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

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	return m, reader
}

func TestMetrics_ConnectionsFollowRegistry(t *testing.T) {
	m, reader := newTestMetrics(t)
	reg := registry.New(registry.WithObserver(m))
	ctx := context.Background()

	reg.Register(ctx, "A")
	reg.Register(ctx, "B")
	reg.Register(ctx, "B")
	reg.Unregister(ctx, "A")

	got := collect(t, reader)["relay.connections.active"]
	sum, ok := got.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(reg.Count()), sum.DataPoints[0].Value)
}

func TestMetrics_Broadcasts(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.UpdateBroadcast(ctx, domain.CategoryBlog, "created", 3)
	m.UpdateBroadcast(ctx, domain.CategoryBlog, "created", 5)
	m.BroadcastFailed(ctx, domain.CategoryLike, "added")

	got := collect(t, reader)

	broadcasts, ok := got["relay.broadcasts"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, broadcasts.DataPoints, 1)
	assert.Equal(t, int64(2), broadcasts.DataPoints[0].Value)
	category, _ := broadcasts.DataPoints[0].Attributes.Value("category")
	assert.Equal(t, "blog", category.AsString())

	failed, ok := got["relay.broadcasts.failed"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failed.DataPoints, 1)
	assert.Equal(t, int64(1), failed.DataPoints[0].Value)

	audience, ok := got["relay.broadcast.audience"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, audience.DataPoints, 1)
	assert.Equal(t, uint64(2), audience.DataPoints[0].Count)
	assert.Equal(t, int64(8), audience.DataPoints[0].Sum)
}

func TestNew_GlobalProvider(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.UpdateBroadcast(context.Background(), domain.CategoryDashboard, "stats", 1)
	})
}
