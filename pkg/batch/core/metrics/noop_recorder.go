package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, jobCount, poolSize int)   {}
func (r *NoOpMetricRecorder) RecordJobEnd(ctx context.Context, result model.JobResult)     {}
func (r *NoOpMetricRecorder) RecordGenerationAttempt(ctx context.Context, outcome string) {}
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, summary model.RunSummary) {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartRunSpan(ctx context.Context, runID string, jobCount int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartJobSpan(ctx context.Context, job model.GenerationJob, workerIndex int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
