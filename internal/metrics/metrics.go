// Package metrics records connection and broadcast activity as
// OpenTelemetry instruments.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nfrund/relay/internal/domain"
)

const meterName = "relay"

// Metrics holds all relay metric instruments. It implements the registry
// and broadcaster observer interfaces.
type Metrics struct {
	Connections      metric.Int64UpDownCounter
	Broadcasts       metric.Int64Counter
	BroadcastsFailed metric.Int64Counter
	Audience         metric.Int64Histogram
}

// New creates all metric instruments on mp, or on the global provider
// when mp is nil.
func New(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Connections, err = meter.Int64UpDownCounter("relay.connections.active",
		metric.WithDescription("Number of registered client connections"))
	if err != nil {
		return nil, err
	}

	m.Broadcasts, err = meter.Int64Counter("relay.broadcasts",
		metric.WithDescription("Number of updates handed to the transport"))
	if err != nil {
		return nil, err
	}

	m.BroadcastsFailed, err = meter.Int64Counter("relay.broadcasts.failed",
		metric.WithDescription("Number of updates the transport refused"))
	if err != nil {
		return nil, err
	}

	m.Audience, err = meter.Int64Histogram("relay.broadcast.audience",
		metric.WithDescription("Recipients per broadcast"),
		metric.WithUnit("{client}"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ConnectionCountChanged implements registry.Observer.
func (m *Metrics) ConnectionCountChanged(ctx context.Context, count, delta int) {
	m.Connections.Add(ctx, int64(delta))
}

// UpdateBroadcast implements broadcast.Observer.
func (m *Metrics) UpdateBroadcast(ctx context.Context, category domain.Category, action string, audience int) {
	attrs := metric.WithAttributes(updateAttrs(category, action)...)
	m.Broadcasts.Add(ctx, 1, attrs)
	m.Audience.Record(ctx, int64(audience), attrs)
}

// BroadcastFailed implements broadcast.Observer.
func (m *Metrics) BroadcastFailed(ctx context.Context, category domain.Category, action string) {
	m.BroadcastsFailed.Add(ctx, 1, metric.WithAttributes(updateAttrs(category, action)...))
}

func updateAttrs(category domain.Category, action string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("category", category.String()),
		attribute.String("action", action),
	}
}
