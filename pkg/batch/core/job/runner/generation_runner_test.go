package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/rlsgen/pkg/batch/component/corpus"
	"github.com/tigerroll/rlsgen/pkg/batch/component/partitioner"
	"github.com/tigerroll/rlsgen/pkg/batch/component/step/reader"
	"github.com/tigerroll/rlsgen/pkg/batch/component/step/writer"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/core/job/runner"
	"github.com/tigerroll/rlsgen/pkg/batch/engine/step/partition"
	"github.com/tigerroll/rlsgen/pkg/batch/engine/step/tasklet"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	testutil "github.com/tigerroll/rlsgen/pkg/batch/test"
)

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type fixture struct {
	outDir  string
	sqlMock sqlmock.Sqlmock
	runner  *runner.GenerationRunner
}

var policyColumns = []string{"schemaname", "tablename", "policyname", "permissive", "roles", "cmd", "qual", "with_check"}

func newFixture(t *testing.T, gen generatorFunc, parallelism int) *fixture {
	t.Helper()
	corpusDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "guide.md"), []byte("Use pgTAP."), 0o644))
	outDir := filepath.Join(t.TempDir(), "supabase", "tests")

	conn, sqlMock := testutil.NewSqlmockConnection(t)
	provider := testutil.NewSingleConnectionProvider(conn)

	w, err := writer.NewLocalArtifactWriter(config.OutputConfig{Dir: outDir, Extension: ".sql"})
	require.NoError(t, err)

	dispatcher := partition.NewWorkerPoolDispatcher(
		tasklet.NewGenerationTasklet(gen, w, nil, nil),
		partitioner.NewRoundRobinPartitioner(),
		partition.PoolSizePolicy{Parallelism: func() int { return parallelism }},
		nil, nil, nil,
	)
	r := runner.NewGenerationRunner(
		corpus.NewLoader(config.CorpusConfig{LocalDir: corpusDir}, nil),
		reader.NewPolicySource(provider, "catalog"),
		reader.NewSchemaProvider(provider, "catalog", config.DefaultIgnoredSchemas),
		dispatcher,
		nil,
	)
	return &fixture{outDir: outDir, sqlMock: sqlMock, runner: r}
}

func (f *fixture) expectPolicies(names ...string) {
	rows := sqlmock.NewRows(policyColumns)
	for _, n := range names {
		rows.AddRow("public", "posts", n, "PERMISSIVE", "{authenticated}", "SELECT", "(auth.uid() = user_id)", nil)
	}
	f.sqlMock.ExpectQuery(regexp.QuoteMeta("FROM pg_policies")).WillReturnRows(rows)
}

func (f *fixture) expectSchemas(empty bool) {
	rows := sqlmock.NewRows([]string{"table_schema", "table_name", "column_name", "data_type"})
	if !empty {
		rows.AddRow("public", "posts", "id", "bigint").AddRow("public", "posts", "user_id", "uuid")
	}
	f.sqlMock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns c")).WillReturnRows(rows)
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func echoGenerator(calls *int32) generatorFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(calls, 1)
		return "SELECT plan(1);", nil
	}
}

func TestRun_ThreePoliciesAllSucceed(t *testing.T) {
	var calls int32
	f := newFixture(t, echoGenerator(&calls), 8)
	f.expectPolicies("read own", "insert own", "delete own")
	f.expectSchemas(false)

	summary, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.ExitCodeSuccess, runner.ExitCode(err))
	assert.Equal(t, 3, summary.PoolSize)
	assert.Equal(t, 3, summary.Succeeded)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"delete-own.sql", "insert-own.sql", "read-own.sql"}, f.files(t))
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestRun_EmptySchemaSnapshotIsFatal(t *testing.T) {
	var calls int32
	f := newFixture(t, echoGenerator(&calls), 8)
	f.expectPolicies("read own")
	f.expectSchemas(true)

	_, err := f.runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrEmptyResult)
	assert.Equal(t, runner.ExitCodeFailure, runner.ExitCode(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Empty(t, f.files(t))
}

func TestRun_NoPoliciesIsFatal(t *testing.T) {
	var calls int32
	f := newFixture(t, echoGenerator(&calls), 8)
	f.expectPolicies()

	_, err := f.runner.Run(context.Background())
	assert.ErrorIs(t, err, exception.ErrEmptyResult)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRun_OneFailingJobFailsTheRunButNotItsSiblings(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, `"policyname": "insert own"`) {
			return "", exception.NewBatchError(exception.ErrGeneration, "generator", "API returned status 400", nil, false)
		}
		return "SELECT plan(1);", nil
	}, 2)
	f.expectPolicies("read own", "insert own", "delete own")
	f.expectSchemas(false)

	summary, err := f.runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrGeneration)
	assert.Equal(t, runner.ExitCodeFailure, runner.ExitCode(err))
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, model.JobStatusFailed, summary.Results[1].Status)
	assert.Equal(t, []string{"delete-own.sql", "read-own.sql"}, f.files(t))
}

func TestRun_CorpusFailureStopsBeforeCatalog(t *testing.T) {
	src := &mockCorpus{}
	src.On("Load", mock.Anything).Return(model.ReferenceCorpus{}, exception.NewBatchError(exception.ErrCorpusLoad, "corpus", "no reference documents loaded", nil, false))
	policies := &mockPolicies{}

	r := runner.NewGenerationRunner(src, policies, nil, nil, nil)
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, exception.ErrCorpusLoad)
	policies.AssertNotCalled(t, "FetchPolicies", mock.Anything)
}

func TestRun_PolicyFetchFailure(t *testing.T) {
	src := &mockCorpus{}
	src.On("Load", mock.Anything).Return(testutil.NewTestCorpus(), nil)
	policies := &mockPolicies{}
	connErr := exception.NewBatchError(exception.ErrConnection, "catalog", "connection refused", errors.New("dial tcp"), false)
	policies.On("FetchPolicies", mock.Anything).Return(nil, connErr)

	r := runner.NewGenerationRunner(src, policies, nil, nil, nil)
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, exception.ErrConnection)
}

type mockCorpus struct{ mock.Mock }

func (m *mockCorpus) Load(ctx context.Context) (model.ReferenceCorpus, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.ReferenceCorpus), args.Error(1)
}

type mockPolicies struct{ mock.Mock }

func (m *mockPolicies) FetchPolicies(ctx context.Context) ([]model.Policy, error) {
	args := m.Called(ctx)
	policies, _ := args.Get(0).([]model.Policy)
	return policies, args.Error(1)
}
