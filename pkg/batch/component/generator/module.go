package generator

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
)

// NewGenerator provides the Messages API client as a Generator.
func NewGenerator(cfg *config.GenerationConfig, recorder metrics.MetricRecorder) Generator {
	return NewClient(*cfg, recorder)
}

// Module provides the Generator to Fx.
var Module = fx.Provide(NewGenerator)
