package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
)

// GormDBConnection implements database.DBConnection over a *gorm.DB.
type GormDBConnection struct {
	db     *gorm.DB
	config dbconfig.DatabaseConfig
	name   string
}

// NewGormDBConnection wraps db. The connection owns db and closes it on Close.
func NewGormDBConnection(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) *GormDBConnection {
	return &GormDBConnection{db: db, config: cfg, name: name}
}

// Type returns the database type.
func (c *GormDBConnection) Type() string { return c.config.Type }

// Name returns the connection name.
func (c *GormDBConnection) Name() string { return c.name }

// Config returns the database configuration.
func (c *GormDBConnection) Config() dbconfig.DatabaseConfig { return c.config }

// Ping verifies the connection is usable.
func (c *GormDBConnection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return ClassifyError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return ClassifyError("ping", err)
	}
	return nil
}

// QueryRaw executes query and scans the result rows into target.
func (c *GormDBConnection) QueryRaw(ctx context.Context, target interface{}, query string, args ...interface{}) error {
	if err := c.db.WithContext(ctx).Raw(query, args...).Scan(target).Error; err != nil {
		return ClassifyError("query", err)
	}
	return nil
}

// Close closes the underlying sql.DB.
func (c *GormDBConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ClassifyError wraps a driver error as a ConnectionError. Postgres server errors keep
// their SQLSTATE in the message so a failed catalog query can be told apart from
// an unreachable server.
func ClassifyError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return exception.NewBatchError(exception.ErrConnection, moduleName,
			fmt.Sprintf("%s failed (SQLSTATE %s): %s", op, pgErr.Code, pgErr.Message), err, false)
	}
	return exception.NewBatchError(exception.ErrConnection, moduleName, op+" failed", err, exception.IsTemporary(err))
}

var _ database.DBConnection = (*GormDBConnection)(nil)
