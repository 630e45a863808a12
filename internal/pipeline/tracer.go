package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"campaignpulse/internal/infrastructure"
	"campaignpulse/pkg/contracts/domain"
)

// TracerName identifies the spans emitted by the pipeline
const TracerName = "campaignpulse.pipeline"

// RunTracer provides OpenTelemetry instrumentation for pipeline runs. A nil
// metrics value only disables metric recording.
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewRunTracer creates a tracer on the global tracer provider
func NewRunTracer(metrics *infrastructure.PipelineMetrics) *RunTracer {
	return &RunTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// TraceRun creates a span for the entire run
func (rt *RunTracer) TraceRun(ctx context.Context, state *State) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.RunID),
			attribute.String("run.source", state.Source),
			attribute.Int("run.clusters", state.Parameters.Clusters),
			attribute.Bool("run.parallel", state.Parameters.Parallel),
		),
	)
}

// TraceStep creates a span for one step
func (rt *RunTracer) TraceStep(ctx context.Context, runID string, step Step) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", step.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
}

// RecordStepCompletion closes out a step span and records its metrics
func (rt *RunTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	rt.metrics.RecordStep(ctx, stepID, duration, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err,
			trace.WithAttributes(
				attribute.String("step.id", stepID),
				attribute.String("error.type", "step_execution_error"),
			),
		)
		span.SetStatus(codes.Error, "step failed")
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordRunCompletion closes out the run span
func (rt *RunTracer) RecordRunCompletion(ctx context.Context, span trace.Span, state *State) {
	status := string(state.Status)
	span.SetAttributes(
		attribute.String("run.status", status),
		attribute.Int("run.records", len(state.Records)),
		attribute.Int("run.outputs", len(state.Outputs())),
	)
	rt.metrics.RecordRun(ctx, status)

	if state.Error != nil {
		span.SetStatus(codes.Error, state.Error.Error())
		return
	}
	span.SetStatus(codes.Ok, "run completed")
}

// RecordRecords counts records that passed through a step
func (rt *RunTracer) RecordRecords(ctx context.Context, stepID string, n int) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("step.records", n))
	rt.metrics.RecordRecords(ctx, stepID, n)
}

// RecordRepairs counts the cleaner's repairs
func (rt *RunTracer) RecordRepairs(ctx context.Context, repairs []domain.DataQualityWarning) {
	for _, r := range repairs {
		rt.metrics.RecordRepair(ctx, string(r.Kind), r.Column, r.Count)
	}
}
