package partition

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
)

// DispatcherParams defines the dependencies for WorkerPoolDispatcher.
type DispatcherParams struct {
	fx.In
	Tasklet     port.Tasklet
	Partitioner port.Partitioner
	Config      *config.DispatcherConfig
	Listeners   []port.RunListener `group:"runListeners"`
	Recorder    metrics.MetricRecorder
	Tracer      metrics.Tracer
}

// NewDispatcherFromParams builds the dispatcher from the Fx graph.
func NewDispatcherFromParams(p DispatcherParams) *WorkerPoolDispatcher {
	return NewWorkerPoolDispatcher(p.Tasklet, p.Partitioner, NewPoolSizePolicy(*p.Config), p.Listeners, p.Recorder, p.Tracer)
}

// Module defines the Fx options for the worker pool.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewDispatcherFromParams,
		fx.As(new(port.Dispatcher)),
	)),
)
