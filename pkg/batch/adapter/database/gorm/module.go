package gorm

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
)

// NewProviderFunc builds a database.DBProvider for one database type.
type NewProviderFunc func(cfg *config.Config) database.DBProvider

// ProvideDBProvider exports the provider built by newProvider as database.DBProvider.
func ProvideDBProvider(newProvider NewProviderFunc) fx.Option {
	return fx.Provide(fx.Annotate(
		newProvider,
		fx.As(new(database.DBProvider)),
	))
}
