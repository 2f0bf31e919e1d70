// Package database defines the database abstractions used by the catalog readers.
package database

import (
	"context"

	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/rlsgen/pkg/batch/core/adapter"
)

// DBExecutor runs read-only statements.
type DBExecutor interface {
	// QueryRaw executes query with args and scans every row into target,
	// which must be a pointer to a slice of structs.
	QueryRaw(ctx context.Context, target interface{}, query string, args ...interface{}) error
}

// DBConnection represents one open database connection.
type DBConnection interface {
	coreAdapter.ResourceConnection // Embeds Type(), Name(), Close()
	DBExecutor

	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
}

// DBProvider opens connections from the named entries of rlsgen.database.
type DBProvider interface {
	// Connect opens a new connection. The caller owns it and must Close it.
	Connect(ctx context.Context, name string) (DBConnection, error)
	// Type returns the database type handled by this provider (e.g., "postgres").
	Type() string
}
