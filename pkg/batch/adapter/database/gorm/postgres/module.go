package postgres

import (
	gormadapter "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/gorm"
)

// Module exports the PostgreSQL DBProvider for dependency injection.
var Module = gormadapter.ProvideDBProvider(NewProvider)
