package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

// TracerName is the instrumentation scope of the assembly spans.
const TracerName = "github.com/ahrav/go-rubric/assembly"

var _ UnitObserver = (*OTelUnitObserver)(nil)

// OTelUnitObserver traces each assembly unit as an OpenTelemetry span and
// reports step latency and failures to a MetricsCollector. Spans live in
// the context, so one observer serves concurrent executions.
type OTelUnitObserver struct {
	tracer  trace.Tracer
	metrics ports.MetricsCollector
}

// NewOTelUnitObserver creates an observer. A nil provider uses the global
// tracer provider; a nil metrics collector disables metrics.
func NewOTelUnitObserver(provider trace.TracerProvider, metrics ports.MetricsCollector) *OTelUnitObserver {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &OTelUnitObserver{
		tracer:  provider.Tracer(TracerName),
		metrics: metrics,
	}
}

// PreExecute starts the unit span and tags it with the execution context.
func (o *OTelUnitObserver) PreExecute(ctx context.Context, unit string, state domain.State) context.Context {
	ctx, span := o.tracer.Start(ctx, "unit."+unit)
	span.SetAttributes(attribute.String("unit.name", unit))

	if execCtx, ok := state.GetExecutionContext(); ok {
		span.SetAttributes(
			attribute.String("report.id", execCtx.ReportID),
			attribute.String("session.id", execCtx.SessionID),
			attribute.String("session.category", string(execCtx.Category)),
		)
	}
	span.SetAttributes(attribute.Int("state.warnings_before", len(state.Warnings())))
	return ctx
}

// PostExecute records the outcome on the span, ends it, and updates metrics.
func (o *OTelUnitObserver) PostExecute(
	ctx context.Context,
	unit string,
	state domain.State,
	elapsed time.Duration,
	err error,
) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	labels := map[string]string{"unit": unit}
	if o.metrics != nil {
		o.metrics.RecordLatency(ports.MetricUnitExecution, elapsed, labels)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var metricErr *domain.MetricError
		if errors.As(err, &metricErr) {
			span.AddEvent("metric.failed", trace.WithAttributes(
				attribute.String("metric", metricErr.Metric),
				attribute.Int("epoch", metricErr.Epoch),
			))
			labels["metric"] = metricErr.Metric
		}
		if o.metrics != nil {
			o.metrics.RecordCounter(ports.MetricUnitFailures, 1, labels)
		}
		return
	}

	warnings := state.Warnings()
	span.SetAttributes(attribute.Int("state.warnings_after", len(warnings)))
	if len(warnings) > 0 {
		span.AddEvent("state.warning", trace.WithAttributes(
			attribute.String("message", warnings[len(warnings)-1]),
		))
	}
	span.SetStatus(codes.Ok, "")
}
