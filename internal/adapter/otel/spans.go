package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "xeenaps"

// StartAISpan starts a span around a text generation call.
func StartAISpan(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ai.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ai.provider", provider),
			attribute.String("ai.model", model),
		),
	)
}

// StartStorageSpan starts a span around a file store operation.
func StartStorageSpan(ctx context.Context, driver, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "storage."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("storage.driver", driver)),
	)
}

// StartAuditSpan starts a span covering a whole audit run.
func StartAuditSpan(ctx context.Context, projectID string, sources int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tracer.audit",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("audit.sources", sources),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
