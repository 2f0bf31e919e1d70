package runner

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/component/corpus"
	"github.com/tigerroll/rlsgen/pkg/batch/component/step/reader"
	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
)

// GenerationRunnerParams defines dependencies for GenerationRunner.
type GenerationRunnerParams struct {
	fx.In
	Corpus     *corpus.Loader
	Policies   *reader.PolicySource
	Schemas    *reader.SchemaProvider
	Dispatcher port.Dispatcher
	Recorder   metrics.MetricRecorder
}

// NewRunner provides the GenerationRunner.
func NewRunner(p GenerationRunnerParams) *GenerationRunner {
	return NewGenerationRunner(p.Corpus, p.Policies, p.Schemas, p.Dispatcher, p.Recorder)
}

// Module provides the GenerationRunner.
var Module = fx.Options(
	fx.Provide(NewRunner),
)
