package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts the logging section so components can depend on it alone.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.RLSGen.System.Logging
}

// NewGenerationConfigProvider extracts the generation section.
func NewGenerationConfigProvider(cfg *Config) *GenerationConfig {
	return &cfg.RLSGen.Generation
}

// NewOutputConfigProvider extracts the output section.
func NewOutputConfigProvider(cfg *Config) *OutputConfig {
	return &cfg.RLSGen.Output
}

// NewCorpusConfigProvider extracts the corpus section.
func NewCorpusConfigProvider(cfg *Config) *CorpusConfig {
	return &cfg.RLSGen.Corpus
}

// NewDispatcherConfigProvider extracts the dispatcher section.
func NewDispatcherConfigProvider(cfg *Config) *DispatcherConfig {
	return &cfg.RLSGen.Dispatcher
}

// Module provides the configuration sections to Fx. *Config itself is supplied by the application.
var Module = fx.Options(
	fx.Provide(
		NewLoggingConfigProvider,
		NewGenerationConfigProvider,
		NewOutputConfigProvider,
		NewCorpusConfigProvider,
		NewDispatcherConfigProvider,
	),
)
