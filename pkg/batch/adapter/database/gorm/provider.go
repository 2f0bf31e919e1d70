// Package gorm implements the database adapter on top of GORM.
package gorm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "database"

// DialectorFactory generates a gorm.Dialector from a dbconfig.DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory corresponding to the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// BaseProvider opens a fresh connection per Connect call. Nothing is pooled across
// calls: the catalog is read a handful of times per run.
type BaseProvider struct {
	cfg    *config.Config
	dbType string
}

// NewBaseProvider creates a new BaseProvider.
func NewBaseProvider(cfg *config.Config, dbType string) *BaseProvider {
	return &BaseProvider{cfg: cfg, dbType: dbType}
}

// Type returns the database type.
func (p *BaseProvider) Type() string {
	return p.dbType
}

// Connect decodes the named configuration, opens the database and verifies it with a ping.
func (p *BaseProvider) Connect(ctx context.Context, name string) (database.DBConnection, error) {
	rawConfig, ok := p.cfg.RLSGen.AdapterConfigs[name]
	if !ok {
		return nil, exception.NewBatchErrorf(exception.ErrConfiguration, moduleName, "database configuration '%s' not found", name)
	}
	dbConfig, err := dbconfig.Decode(rawConfig)
	if err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, fmt.Sprintf("invalid database configuration '%s'", name), err, false)
	}
	if dbConfig.Type != p.dbType {
		return nil, exception.NewBatchErrorf(exception.ErrConfiguration, moduleName,
			"provider type mismatch: expected '%s', got '%s' for connection '%s'", p.dbType, dbConfig.Type, name)
	}

	db, err := p.open(dbConfig)
	if err != nil {
		return nil, exception.NewBatchError(exception.ErrConnection, moduleName, fmt.Sprintf("failed to open connection '%s'", name), err, false)
	}
	conn := NewGormDBConnection(db, dbConfig, name)
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Debugf("Opened DB connection: %s (%s@%s:%d/%s)", name, dbConfig.User, dbConfig.Host, dbConfig.Port, dbConfig.Database)
	return conn, nil
}

func (p *BaseProvider) open(dbConfig dbconfig.DatabaseConfig) (*gorm.DB, error) {
	dialectorFactory, err := GetDialectorFactory(dbConfig.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := dialectorFactory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", dbConfig.Type, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if dbConfig.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	}
	if dbConfig.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	}
	if dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}
