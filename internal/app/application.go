// Package app assembles the rlsgen Fx application and runs one generation.
package app

import (
	"context"
	"errors"

	"go.uber.org/fx"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/core/job/runner"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/serialization"
)

// Options carries command line overrides. Zero values leave the loaded configuration alone.
type Options struct {
	EnvFiles   []string
	OutputDir  string
	CorpusDir  string
	MaxWorkers int
	LogLevel   string
}

// LoadConfiguration loads, overrides and validates the configuration.
func LoadConfiguration(embeddedConfig config.EmbeddedConfig, opts Options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.EnvFiles, embeddedConfig, config.NewOsEnvironmentExpander())
	if err != nil {
		return nil, err
	}
	applyOptions(cfg, opts)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOptions(cfg *config.Config, opts Options) {
	if opts.OutputDir != "" {
		cfg.RLSGen.Output.Dir = opts.OutputDir
	}
	if opts.CorpusDir != "" {
		cfg.RLSGen.Corpus.LocalDir = opts.CorpusDir
	}
	if opts.MaxWorkers > 0 {
		cfg.RLSGen.Dispatcher.MaxWorkers = opts.MaxWorkers
	}
	if opts.LogLevel != "" {
		cfg.RLSGen.System.Logging.Level = opts.LogLevel
	}
}

// RunApplication runs one generation and returns the process exit code.
// Configuration errors are reported before any connection is opened.
func RunApplication(appCtx context.Context, embeddedConfig config.EmbeddedConfig, opts Options) int {
	cfg, err := LoadConfiguration(embeddedConfig, opts)
	if err != nil {
		logger.Errorf("Configuration error: %v", err)
		return runner.ExitCodeFailure
	}
	logger.SetLogLevel(cfg.RLSGen.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.RLSGen.System.Logging.Level)
	logEffectiveConfiguration(cfg)

	return runFx(appCtx, cfg, Module(cfg))
}

// logEffectiveConfiguration dumps the masked configuration when running at DEBUG.
func logEffectiveConfiguration(cfg *config.Config) {
	if logger.GetLogLevel() != logger.LevelDebug {
		return
	}
	if dump, err := serialization.MarshalMasked(cfg); err == nil {
		logger.Debugf("Effective configuration:\n%s", dump)
	}
}

func runFx(appCtx context.Context, cfg *config.Config, modules fx.Option) int {
	state := &runState{done: make(chan struct{})}
	app := fx.New(
		fx.Supply(
			cfg,
			fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		),
		fx.Supply(state),
		modules,
		fx.Invoke(fx.Annotate(startRun, fx.ParamTags("", "", "", "", `name:"appCtx"`))),
	)
	if err := app.Err(); err != nil {
		logger.Errorf("Application setup failed: %v", err)
		return runner.ExitCodeFailure
	}

	if err := app.Start(appCtx); err != nil {
		logger.Errorf("Application start failed: %v", err)
		return runner.ExitCodeFailure
	}
	sig := <-app.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warnf("Application stop failed: %v", err)
	}

	code := sig.ExitCode
	if !state.finished() || (code == runner.ExitCodeSuccess && appCtx.Err() != nil) {
		logger.Warnf("Run interrupted before completion.")
		code = runner.ExitCodeFailure
	}
	return code
}

// runState lets the stop hook wait for an in-flight run.
type runState struct {
	done chan struct{}
}

func (s *runState) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// startRun is invoked by Fx to run the generation once the container has started.
func startRun(lc fx.Lifecycle, shutdowner fx.Shutdowner, r *runner.GenerationRunner, state *runState, appCtx context.Context) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := runner.ExitCodeFailure
				defer func() {
					if p := recover(); p != nil {
						logger.Errorf("Panic recovered in generation run: %v", p)
					}
					close(state.done)
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				_, err := r.Run(appCtx)
				code = runner.ExitCode(err)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Debugf("Run finished with error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-state.done:
			case <-ctx.Done():
				logger.Warnf("Generation run still in progress at shutdown.")
			}
			logger.Debugf("Application is shutting down.")
			return nil
		},
	})
}
