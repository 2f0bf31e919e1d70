// Package tasklet holds the per-job work run by each worker.
package tasklet

import (
	"context"
	"time"

	"github.com/tigerroll/rlsgen/pkg/batch/component/generator"
	"github.com/tigerroll/rlsgen/pkg/batch/component/prompt"
	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// ArtifactWriter persists the generated text for a policy.
type ArtifactWriter interface {
	Write(ctx context.Context, policy model.Policy, content string) (string, error)
}

// GenerationTasklet builds the prompt for a job, generates the test file and writes it.
type GenerationTasklet struct {
	generator generator.Generator
	writer    ArtifactWriter
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
}

// NewGenerationTasklet creates a new GenerationTasklet.
func NewGenerationTasklet(gen generator.Generator, writer ArtifactWriter, recorder metrics.MetricRecorder, tracer metrics.Tracer) *GenerationTasklet {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &GenerationTasklet{generator: gen, writer: writer, recorder: recorder, tracer: tracer}
}

// Execute implements port.Tasklet.
func (t *GenerationTasklet) Execute(ctx context.Context, job model.GenerationJob, workerIndex int) (string, error) {
	text := prompt.Build(job.Schemas, job.Policy, job.Corpus)
	t.tracer.RecordEvent(ctx, "prompt.built", map[string]interface{}{
		"prompt.bytes": len(text),
		"worker.index": workerIndex,
	})

	start := time.Now()
	content, err := t.generator.Generate(ctx, text)
	t.recorder.RecordDuration(ctx, "generate", time.Since(start), map[string]string{"worker": "pool"})
	if err != nil {
		t.tracer.RecordError(ctx, "generator", err)
		return "", err
	}

	path, err := t.writer.Write(ctx, job.Policy, content)
	if err != nil {
		t.tracer.RecordError(ctx, "writer", err)
		return "", err
	}
	logger.Debugf("Worker %d wrote '%s' for policy '%s'.", workerIndex, path, job.Policy.Identity())
	return path, nil
}

var _ port.Tasklet = (*GenerationTasklet)(nil)
