package corpus

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
)

func newLoader(cfg *config.CorpusConfig) *Loader {
	return NewLoader(*cfg, nil)
}

// Module provides the corpus Loader to Fx.
var Module = fx.Provide(newLoader)
