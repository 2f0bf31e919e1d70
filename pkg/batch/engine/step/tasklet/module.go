package tasklet

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/component/step/writer"
	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
)

// Module provides the GenerationTasklet as the pool's port.Tasklet.
var Module = fx.Options(
	fx.Provide(func(w *writer.ArtifactWriter) ArtifactWriter { return w }),
	fx.Provide(fx.Annotate(
		NewGenerationTasklet,
		fx.As(new(port.Tasklet)),
	)),
)
