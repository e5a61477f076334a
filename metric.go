package propagate

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/rbaliyan/propagate"

// Drop reasons recorded on the dropped counter
const (
	dropReasonCancelled = "cancelled"
	dropReasonClosed    = "closed"
)

// hubMetrics records hub activity with OpenTelemetry instruments
type hubMetrics struct {
	hub        attribute.KeyValue
	published  metric.Int64Counter
	dropped    metric.Int64Counter
	cancelled  metric.Int64Counter
	subscribed metric.Int64Counter
	replayed   metric.Int64Counter
}

// newHubMetrics creates the hub instruments, a noop meter is used when disabled
func newHubMetrics(name string, enabled bool) *hubMetrics {
	var meter metric.Meter
	if enabled {
		meter = otel.Meter(instrumentationName)
	} else {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}

	m := &hubMetrics{hub: attribute.String("hub", name)}
	m.published, _ = meter.Int64Counter("propagate.published",
		metric.WithDescription("Number of states delivered to subscribers"),
		metric.WithUnit("{state}"),
	)
	m.dropped, _ = meter.Int64Counter("propagate.dropped",
		metric.WithDescription("Number of states dropped because the hub was cancelled"),
		metric.WithUnit("{state}"),
	)
	m.cancelled, _ = meter.Int64Counter("propagate.cancelled",
		metric.WithDescription("Number of cancellations delivered to subscribers"),
		metric.WithUnit("{subscriber}"),
	)
	m.subscribed, _ = meter.Int64Counter("propagate.subscribed",
		metric.WithDescription("Number of subscribers or callbacks attached"),
		metric.WithUnit("{subscriber}"),
	)
	m.replayed, _ = meter.Int64Counter("propagate.replayed",
		metric.WithDescription("Number of last states replayed to new callbacks"),
		metric.WithUnit("{state}"),
	)
	return m
}

func (m *hubMetrics) add(ctx context.Context, c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if c == nil || n == 0 {
		return
	}
	attrs = append(attrs, m.hub)
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (m *hubMetrics) Published(ctx context.Context, kind Kind, n int) {
	m.add(ctx, m.published, int64(n), attribute.String("kind", kind.String()))
}

func (m *hubMetrics) Dropped(ctx context.Context, kind Kind, reason string) {
	m.add(ctx, m.dropped, 1,
		attribute.String("kind", kind.String()),
		attribute.String("reason", reason))
}

func (m *hubMetrics) Cancelled(ctx context.Context, n int) {
	m.add(ctx, m.cancelled, int64(n))
}

func (m *hubMetrics) Subscribed(ctx context.Context) {
	m.add(ctx, m.subscribed, 1)
}

func (m *hubMetrics) Replayed(ctx context.Context, kind Kind) {
	m.add(ctx, m.replayed, 1, attribute.String("kind", kind.String()))
}

// newTracer returns the hub tracer, a noop tracer when disabled
func newTracer(enabled bool) trace.Tracer {
	if enabled {
		return otel.Tracer(instrumentationName)
	}
	return tracenoop.NewTracerProvider().Tracer(instrumentationName)
}
