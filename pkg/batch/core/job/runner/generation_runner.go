// Package runner drives one generation run from prerequisite fetches to the exit code.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"

	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	exception "github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "runner"

// Exit codes of a run.
const (
	ExitCodeSuccess = 0
	ExitCodeFailure = 1
)

// CorpusSource loads the reference documents.
type CorpusSource interface {
	Load(ctx context.Context) (model.ReferenceCorpus, error)
}

// PolicyFetcher reads the policies to generate tests for.
type PolicyFetcher interface {
	FetchPolicies(ctx context.Context) ([]model.Policy, error)
}

// SchemaFetcher reads the table schema snapshot.
type SchemaFetcher interface {
	FetchSchemas(ctx context.Context) ([]model.TableSchema, error)
}

// GenerationRunner loads the prerequisites, builds one job per policy and hands them to the dispatcher.
// Any prerequisite failure ends the run before a job is created.
type GenerationRunner struct {
	corpus     CorpusSource
	policies   PolicyFetcher
	schemas    SchemaFetcher
	dispatcher port.Dispatcher
	recorder   metrics.MetricRecorder
}

// NewGenerationRunner creates a new GenerationRunner.
func NewGenerationRunner(
	corpus CorpusSource,
	policies PolicyFetcher,
	schemas SchemaFetcher,
	dispatcher port.Dispatcher,
	recorder metrics.MetricRecorder,
) *GenerationRunner {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &GenerationRunner{
		corpus:     corpus,
		policies:   policies,
		schemas:    schemas,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

// Run executes a full run. The returned error is nil only if every job succeeded.
func (r *GenerationRunner) Run(ctx context.Context) (model.RunSummary, error) {
	runID := uuid.NewString()
	logger.Debugf("GenerationRunner: starting run %s.", runID)

	var corpus model.ReferenceCorpus
	if err := r.timed(ctx, "load_corpus", func() (err error) {
		corpus, err = r.corpus.Load(ctx)
		return err
	}); err != nil {
		return model.RunSummary{RunID: runID}, err
	}

	var policies []model.Policy
	if err := r.timed(ctx, "fetch_policies", func() (err error) {
		policies, err = r.policies.FetchPolicies(ctx)
		return err
	}); err != nil {
		return model.RunSummary{RunID: runID}, err
	}
	if len(policies) == 0 {
		err := exception.NewBatchError(exception.ErrEmptyResult, moduleName, "no RLS policies found", nil, false)
		logger.Errorf("GenerationRunner: %v", err)
		return model.RunSummary{RunID: runID}, err
	}

	var schemas []model.TableSchema
	if err := r.timed(ctx, "fetch_schemas", func() (err error) {
		schemas, err = r.schemas.FetchSchemas(ctx)
		return err
	}); err != nil {
		return model.RunSummary{RunID: runID}, err
	}
	logger.Debugf("GenerationRunner: %d policies, %d tables, %d reference documents.", len(policies), len(schemas), corpus.Len())

	jobs := model.NewGenerationJobs(policies, schemas, corpus)
	start := time.Now()
	summary, err := r.dispatcher.Dispatch(ctx, runID, jobs)
	r.recorder.RecordDuration(ctx, "dispatch", time.Since(start), map[string]string{"result": result(err)})
	return summary, err
}

func (r *GenerationRunner) timed(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.recorder.RecordDuration(ctx, name, time.Since(start), map[string]string{"result": result(err)})
	if err != nil {
		logger.Errorf("GenerationRunner: %s failed: %v", name, err)
	}
	return err
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ExitCode maps the outcome of Run to the process exit code.
func ExitCode(err error) int {
	if err != nil {
		return ExitCodeFailure
	}
	return ExitCodeSuccess
}
