package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const instrumentationName = "github.com/tigerroll/rlsgen"

// OpenTelemetryTracer is an implementation of metrics.Tracer using the OpenTelemetry SDK.
type OpenTelemetryTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOpenTelemetryTracer builds a tracer provider. Spans are exported over OTLP/HTTP when
// an endpoint is configured; otherwise they are created and dropped in-process.
func NewOpenTelemetryTracer(ctx context.Context, cfg config.TracingConfig) (*OpenTelemetryTracer, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	}
	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Debugf("Tracing: exporting spans to %s", cfg.OTLPEndpoint)
	}
	return NewOpenTelemetryTracerWithProvider(sdktrace.NewTracerProvider(opts...)), nil
}

// NewOpenTelemetryTracerWithProvider wraps an existing provider.
func NewOpenTelemetryTracerWithProvider(provider *sdktrace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}
}

// StartRunSpan starts the root span of a run.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, runID string, jobCount int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "rlsgen.run", trace.WithAttributes(
		attribute.String("rlsgen.run_id", runID),
		attribute.Int("rlsgen.job_count", jobCount),
	))
	return ctx, func() { span.End() }
}

// StartJobSpan starts a span for one job.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, job model.GenerationJob, workerIndex int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "rlsgen.job", trace.WithAttributes(
		attribute.String("rlsgen.job_id", job.ID),
		attribute.Int("rlsgen.job_index", job.Index),
		attribute.Int("rlsgen.worker", workerIndex),
		attribute.String("rlsgen.policy", job.Policy.Identity()),
		attribute.String("rlsgen.policy.command", job.Policy.Command.String()),
		attribute.Bool("rlsgen.policy.permissive", job.Policy.IsPermissive()),
	))
	return ctx, func() { span.End() }
}

// RecordError records err on the current span and marks it failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("rlsgen.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

// Shutdown flushes pending spans and stops the provider.
func (t *OpenTelemetryTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

func toAttributes(values map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
