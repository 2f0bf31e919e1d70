package metrics

import (
	"context"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing of a generation run.
type Tracer interface {
	// StartRunSpan starts the root span of a run.
	// The returned function ends the span and should be deferred.
	StartRunSpan(ctx context.Context, runID string, jobCount int) (context.Context, func())

	// StartJobSpan starts a span for one job, as a child of the span in ctx.
	StartJobSpan(ctx context.Context, job model.GenerationJob, workerIndex int) (context.Context, func())

	// RecordError records an error in the current span.
	// module names the component where the error occurred (e.g., "generator", "writer").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
