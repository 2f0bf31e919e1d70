package metrics

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

func newPrometheusRecorder(lc fx.Lifecycle, cfg *config.Config) *PrometheusRecorder {
	r := NewPrometheusRecorder(cfg.RLSGen.Metrics)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := r.Flush(ctx); err != nil {
				logger.Warnf("Failed to export metrics: %v", err)
			}
			return nil
		},
	})
	return r
}

func newOpenTelemetryTracer(lc fx.Lifecycle, cfg *config.Config) (*OpenTelemetryTracer, error) {
	t, err := NewOpenTelemetryTracer(context.Background(), cfg.RLSGen.Tracing)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: t.Shutdown})
	return t, nil
}

// RecorderModule provides PrometheusRecorder as metrics.MetricRecorder and flushes it on stop.
var RecorderModule = fx.Provide(fx.Annotate(
	newPrometheusRecorder,
	fx.As(new(metrics.MetricRecorder)),
))

// TracerModule provides OpenTelemetryTracer as metrics.Tracer and shuts it down on stop.
var TracerModule = fx.Provide(fx.Annotate(
	newOpenTelemetryTracer,
	fx.As(new(metrics.Tracer)),
))
