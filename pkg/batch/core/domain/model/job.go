package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a GenerationJob.
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsFinished reports whether the status is terminal.
func (s JobStatus) IsFinished() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// isValidJobTransition checks the PENDING -> RUNNING -> SUCCEEDED|FAILED lifecycle.
// A pending job may also fail directly, e.g. when its worker panics before it starts.
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case JobStatusPending:
		return next == JobStatusRunning || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusSucceeded || next == JobStatusFailed
	default:
		return false
	}
}

// GenerationJob is the unit of work for one policy.
// Schemas and Corpus are shared, read-only snapshots.
type GenerationJob struct {
	ID      string
	Index   int
	Policy  Policy
	Schemas []TableSchema
	Corpus  ReferenceCorpus
}

// NewGenerationJobs builds one job per policy, preserving fetch order in Index.
func NewGenerationJobs(policies []Policy, schemas []TableSchema, corpus ReferenceCorpus) []GenerationJob {
	jobs := make([]GenerationJob, len(policies))
	for i, p := range policies {
		jobs[i] = GenerationJob{
			ID:      uuid.NewString(),
			Index:   i,
			Policy:  p,
			Schemas: schemas,
			Corpus:  corpus,
		}
	}
	return jobs
}

// JobResult records the outcome of one GenerationJob.
type JobResult struct {
	JobID          string
	Index          int
	WorkerIndex    int
	PolicyIdentity string
	PolicyName     string
	Status         JobStatus
	ArtifactPath   string
	Err            error
	StartTime      time.Time
	EndTime        time.Time
}

// NewJobResult creates a PENDING result for the job.
func NewJobResult(job GenerationJob, workerIndex int) *JobResult {
	return &JobResult{
		JobID:          job.ID,
		Index:          job.Index,
		WorkerIndex:    workerIndex,
		PolicyIdentity: job.Policy.Identity(),
		PolicyName:     job.Policy.PolicyName,
		Status:         JobStatusPending,
	}
}

// TransitionTo moves the result to newStatus, rejecting transitions outside the lifecycle.
func (r *JobResult) TransitionTo(newStatus JobStatus) error {
	if !isValidJobTransition(r.Status, newStatus) {
		return fmt.Errorf("job %s (%s): invalid state transition: %s -> %s", r.JobID, r.PolicyIdentity, r.Status, newStatus)
	}
	r.Status = newStatus
	return nil
}

// MarkAsRunning sets RUNNING and records the start time.
func (r *JobResult) MarkAsRunning() error {
	if err := r.TransitionTo(JobStatusRunning); err != nil {
		return err
	}
	r.StartTime = time.Now()
	return nil
}

// MarkAsSucceeded sets SUCCEEDED with the written artifact path.
func (r *JobResult) MarkAsSucceeded(artifactPath string) error {
	if err := r.TransitionTo(JobStatusSucceeded); err != nil {
		return err
	}
	r.ArtifactPath = artifactPath
	r.EndTime = time.Now()
	return nil
}

// MarkAsFailed sets FAILED and keeps err as the cause.
func (r *JobResult) MarkAsFailed(err error) error {
	if terr := r.TransitionTo(JobStatusFailed); terr != nil {
		return terr
	}
	r.Err = err
	r.EndTime = time.Now()
	return nil
}

// Duration returns the elapsed time between start and end, or zero if the job never ran.
func (r JobResult) Duration() time.Duration {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// RunSummary aggregates every JobResult of a run. Results are ordered by job index.
type RunSummary struct {
	RunID     string
	PoolSize  int
	Results   []JobResult
	Succeeded int
	Failed    int
}

// NewRunSummary tallies results, which must already be ordered by Index.
func NewRunSummary(runID string, poolSize int, results []JobResult) RunSummary {
	s := RunSummary{RunID: runID, PoolSize: poolSize, Results: results}
	for _, r := range results {
		if r.Status == JobStatusSucceeded {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// AllSucceeded reports whether every job succeeded.
func (s RunSummary) AllSucceeded() bool {
	return s.Failed == 0
}

// FailedResults returns the failed results in job order.
func (s RunSummary) FailedResults() []JobResult {
	var failed []JobResult
	for _, r := range s.Results {
		if r.Status != JobStatusSucceeded {
			failed = append(failed, r)
		}
	}
	return failed
}
