package reader

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
)

func newSchemaProvider(db database.DBProvider, cfg *config.Config) *SchemaProvider {
	return NewSchemaProvider(db, cfg.RLSGen.Catalog.DBRef, cfg.RLSGen.Catalog.IgnoredSchemas)
}

func newPolicySource(db database.DBProvider, cfg *config.Config) *PolicySource {
	return NewPolicySource(db, cfg.RLSGen.Catalog.DBRef)
}

// Module provides the catalog readers.
var Module = fx.Provide(newSchemaProvider, newPolicySource)
