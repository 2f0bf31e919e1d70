package app

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/rlsgen/pkg/batch/component/corpus"
	"github.com/tigerroll/rlsgen/pkg/batch/component/generator"
	"github.com/tigerroll/rlsgen/pkg/batch/component/partitioner"
	"github.com/tigerroll/rlsgen/pkg/batch/component/step/reader"
	"github.com/tigerroll/rlsgen/pkg/batch/component/step/writer"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/core/job/runner"
	coremetrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	"github.com/tigerroll/rlsgen/pkg/batch/engine/step/partition"
	"github.com/tigerroll/rlsgen/pkg/batch/engine/step/tasklet"
	inframetrics "github.com/tigerroll/rlsgen/pkg/batch/infrastructure/metrics"
	batchlistener "github.com/tigerroll/rlsgen/pkg/batch/listener"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// observabilityModule picks the Prometheus recorder and OpenTelemetry tracer when they are
// enabled and the no-op implementations otherwise.
func observabilityModule(cfg *config.Config) fx.Option {
	recorder := coremetrics.RecorderModule
	if cfg.RLSGen.Metrics.Enabled {
		recorder = inframetrics.RecorderModule
	}
	tracer := coremetrics.TracerModule
	if cfg.RLSGen.Tracing.Enabled {
		tracer = inframetrics.TracerModule
	}
	return fx.Options(recorder, tracer)
}

// Module wires every layer of a generation run.
func Module(cfg *config.Config) fx.Option {
	return fx.Options(
		logger.Module,
		config.Module,
		observabilityModule(cfg),

		// Catalog access
		postgres.Module,
		reader.Module,

		// Reference corpus, generation and output
		corpus.Module,
		generator.Module,
		writer.Module,

		// Worker pool
		tasklet.Module,
		partitioner.Module,
		partition.Module,
		batchlistener.Module,

		runner.Module,
	)
}
