package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

// Generation attempt outcomes reported by the generation client.
const (
	AttemptSucceeded      = "success"
	AttemptRetryableError = "retryable_error"
	AttemptTerminalError  = "terminal_error"
)

// MetricRecorder records run, job and generation-attempt metrics.
// Implementations must be safe for concurrent use by every worker.
type MetricRecorder interface {
	// RecordRunStart records the number of jobs and the chosen pool size.
	RecordRunStart(ctx context.Context, jobCount, poolSize int)

	// RecordJobEnd records the final state of one job.
	RecordJobEnd(ctx context.Context, result model.JobResult)

	// RecordGenerationAttempt records one request to the generation endpoint.
	// outcome is one of the Attempt* constants.
	RecordGenerationAttempt(ctx context.Context, outcome string)

	// RecordDuration records the execution time of a named operation
	// (e.g., "fetch_policies", "fetch_schemas", "load_corpus").
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)

	// RecordRunEnd records the aggregate outcome.
	RecordRunEnd(ctx context.Context, summary model.RunSummary)
}
