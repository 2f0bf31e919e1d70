package metrics

import (
	"go.uber.org/fx"
)

// RecorderModule provides the no-op MetricRecorder, used when metrics are disabled.
var RecorderModule = fx.Provide(fx.Annotate(
	NewNoOpMetricRecorder,
	fx.As(new(MetricRecorder)),
))

// TracerModule provides the no-op Tracer, used when tracing is disabled.
var TracerModule = fx.Provide(fx.Annotate(
	NewNoOpTracer,
	fx.As(new(Tracer)),
))

// Module provides both no-op implementations.
var Module = fx.Options(RecorderModule, TracerModule)
