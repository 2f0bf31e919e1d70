// Package port defines the core interfaces (ports) of a generation run.
// These interfaces separate the dispatcher from the work it schedules and from
// the components that observe it, allowing for flexible implementation and testing.
package port

import (
	"context"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

// Tasklet performs the work of one GenerationJob.
type Tasklet interface {
	// Execute runs the job on the given worker.
	//
	// Parameters:
	//   ctx: The context for the operation. It carries the job span when tracing is enabled.
	//   job: The job to execute.
	//   workerIndex: The index of the worker goroutine running the job.
	//
	// Returns:
	//   string: The location of the written artifact.
	//   error: An error if the job failed. The dispatcher records it on the job's result.
	Execute(ctx context.Context, job model.GenerationJob, workerIndex int) (string, error)
}

// Partitioner assigns jobs to workers.
type Partitioner interface {
	// Partition splits jobs into gridSize ordered queues.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   jobs: The jobs in fetch order.
	//   gridSize: The number of workers. Must be at least 1.
	//
	// Returns:
	//   [][]model.GenerationJob: One queue per worker, each in the order its jobs must run.
	Partition(ctx context.Context, jobs []model.GenerationJob, gridSize int) [][]model.GenerationJob
}

// Dispatcher runs a set of jobs on a bounded worker pool.
type Dispatcher interface {
	// Dispatch runs every job and waits for all of them.
	//
	// Parameters:
	//   ctx: The context for the operation. Cancellation only reaches blocking calls inside jobs.
	//   runID: Identifies the run in logs, spans and the returned summary.
	//   jobs: The jobs in fetch order.
	//
	// Returns:
	//   model.RunSummary: One result per job, ordered by job index.
	//   error: A combined error when at least one job failed.
	Dispatch(ctx context.Context, runID string, jobs []model.GenerationJob) (model.RunSummary, error)
}

// RunListener observes a run.
type RunListener interface {
	// BeforeRun is called once the pool size is known, before any job starts.
	BeforeRun(ctx context.Context, runID string, jobCount, poolSize int)
	// AfterJob is called on the coordinating goroutine for every finished job, in completion order.
	// completed counts the finished jobs including this one.
	AfterJob(ctx context.Context, result model.JobResult, completed, total int)
	// AfterRun is called after every job has finished.
	AfterRun(ctx context.Context, summary model.RunSummary)
}
