package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "xeenaps"

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds the service's instruments. A nil *Metrics records nothing,
// so callers never need to guard.
type Metrics struct {
	aiCalls       metric.Int64Counter
	aiDuration    metric.Float64Histogram
	fileCleanups  metric.Int64Counter
	auditSources  metric.Int64Counter
	eventsEmitted metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.aiCalls, err = meter.Int64Counter("xeenaps.ai.calls",
		metric.WithDescription("Text generation calls by provider and outcome")); err != nil {
		return nil, err
	}
	if m.aiDuration, err = meter.Float64Histogram("xeenaps.ai.duration_seconds",
		metric.WithDescription("Text generation latency"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.fileCleanups, err = meter.Int64Counter("xeenaps.files.cleanups",
		metric.WithDescription("Background remote file deletions by outcome")); err != nil {
		return nil, err
	}
	if m.auditSources, err = meter.Int64Counter("xeenaps.audit.sources",
		metric.WithDescription("Audited research sources by outcome")); err != nil {
		return nil, err
	}
	if m.eventsEmitted, err = meter.Int64Counter("xeenaps.events.emitted",
		metric.WithDescription("Change notifications emitted by name")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAICall records one generation call.
func (m *Metrics) RecordAICall(ctx context.Context, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome(err)),
	)
	m.aiCalls.Add(ctx, 1, attrs)
	m.aiDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordFileCleanup records one background file deletion.
func (m *Metrics) RecordFileCleanup(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.fileCleanups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

// RecordAuditSource records one analysed research source.
func (m *Metrics) RecordAuditSource(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.auditSources.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

// RecordEvent records one emitted change notification.
func (m *Metrics) RecordEvent(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.eventsEmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}
