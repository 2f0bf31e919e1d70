package writer

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
)

// Module provides the ArtifactWriter for the configured output directory.
var Module = fx.Provide(func(cfg *config.OutputConfig) (*ArtifactWriter, error) {
	return NewLocalArtifactWriter(*cfg)
})
