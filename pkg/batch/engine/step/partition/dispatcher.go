// Package partition runs generation jobs on a bounded pool of worker goroutines.
package partition

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	exception "github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "dispatcher"

// WorkerPoolDispatcher fans jobs out over a fixed set of workers, each with its own FIFO queue.
// Every job produces exactly one result; a failing or panicking job never affects its siblings.
type WorkerPoolDispatcher struct {
	tasklet     port.Tasklet
	partitioner port.Partitioner
	sizePolicy  PoolSizePolicy
	listeners   []port.RunListener
	recorder    metrics.MetricRecorder
	tracer      metrics.Tracer
}

// NewWorkerPoolDispatcher creates a new WorkerPoolDispatcher.
func NewWorkerPoolDispatcher(
	tasklet port.Tasklet,
	partitioner port.Partitioner,
	sizePolicy PoolSizePolicy,
	listeners []port.RunListener,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *WorkerPoolDispatcher {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &WorkerPoolDispatcher{
		tasklet:     tasklet,
		partitioner: partitioner,
		sizePolicy:  sizePolicy,
		listeners:   listeners,
		recorder:    recorder,
		tracer:      tracer,
	}
}

// Dispatch runs every job and blocks until all of them have finished.
// Worker queues are closed and workers joined on every return path.
func (d *WorkerPoolDispatcher) Dispatch(ctx context.Context, runID string, jobs []model.GenerationJob) (summary model.RunSummary, err error) {
	total := len(jobs)
	poolSize := d.sizePolicy.Size(total)

	ctx, endSpan := d.tracer.StartRunSpan(ctx, runID, total)
	defer endSpan()

	d.recorder.RecordRunStart(ctx, total, poolSize)
	for _, l := range d.listeners {
		l.BeforeRun(ctx, runID, total, poolSize)
	}

	queues := d.partitioner.Partition(ctx, jobs, poolSize)
	results := make(chan model.JobResult, total)
	channels := make([]chan model.GenerationJob, len(queues))

	var wg sync.WaitGroup
	var closeOnce sync.Once
	closeQueues := func() {
		closeOnce.Do(func() {
			for _, ch := range channels {
				close(ch)
			}
		})
	}
	defer func() {
		closeQueues()
		wg.Wait()
	}()

	for w, queue := range queues {
		channels[w] = make(chan model.GenerationJob, len(queue))
		for _, job := range queue {
			channels[w] <- job
		}
		wg.Add(1)
		go d.work(ctx, w, channels[w], results, &wg)
	}
	closeQueues()

	ordered := make([]model.JobResult, total)
	for completed := 1; completed <= total; completed++ {
		r := <-results
		ordered[r.Index] = r
		d.recorder.RecordJobEnd(ctx, r)
		for _, l := range d.listeners {
			l.AfterJob(ctx, r, completed, total)
		}
	}

	summary = model.NewRunSummary(runID, poolSize, ordered)
	d.recorder.RecordRunEnd(ctx, summary)
	for _, l := range d.listeners {
		l.AfterRun(ctx, summary)
	}

	var merr *multierror.Error
	for _, r := range summary.FailedResults() {
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.PolicyIdentity, r.Err))
	}
	if merr != nil {
		err = exception.NewBatchErrorf(exception.KindOf(merr.Errors[0]), moduleName, "%d of %d jobs failed", summary.Failed, total, merr.ErrorOrNil())
		d.tracer.RecordError(ctx, moduleName, err)
	}
	return summary, err
}

func (d *WorkerPoolDispatcher) work(ctx context.Context, workerIndex int, queue <-chan model.GenerationJob, results chan<- model.JobResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range queue {
		results <- d.runJob(ctx, workerIndex, job)
	}
}

// runJob executes one job under its own recover so a panic becomes a failed result.
func (d *WorkerPoolDispatcher) runJob(ctx context.Context, workerIndex int, job model.GenerationJob) (result model.JobResult) {
	r := model.NewJobResult(job, workerIndex)
	ctx, endSpan := d.tracer.StartJobSpan(ctx, job, workerIndex)
	defer endSpan()

	defer func() {
		if p := recover(); p != nil {
			logger.Errorf("Worker %d: job for policy '%s' panicked: %v\n%s", workerIndex, job.Policy.Identity(), p, debug.Stack())
			panicErr := exception.NewBatchErrorf(exception.ErrGeneration, moduleName, "job panicked: %v", p)
			d.tracer.RecordError(ctx, moduleName, panicErr)
			_ = r.MarkAsFailed(panicErr)
			result = *r
		}
	}()

	if err := r.MarkAsRunning(); err != nil {
		_ = r.MarkAsFailed(err)
		return *r
	}

	logger.Debugf("Worker %d: starting job %d (%s).", workerIndex, job.Index, job.Policy.Identity())
	path, err := d.tasklet.Execute(ctx, job, workerIndex)
	if err != nil {
		d.tracer.RecordError(ctx, moduleName, err)
		_ = r.MarkAsFailed(err)
	} else {
		_ = r.MarkAsSucceeded(path)
	}
	return *r
}

var _ port.Dispatcher = (*WorkerPoolDispatcher)(nil)
