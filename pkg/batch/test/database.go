// Package test provides fixtures shared by package tests: sqlmock-backed database
// connections and sample domain values.
package test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbadapter "github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/gorm"
)

// NewSqlmockDB opens a GORM Postgres handle over go-sqlmock. The mock's sql.DB is
// closed when the test ends.
func NewSqlmockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = sqlDB.Close()
	})
	return gormDB, mock
}

// NewSqlmockConnection wraps NewSqlmockDB in a DBConnection whose Close is a no-op,
// so code under test can close it after every fetch while the mock stays usable.
func NewSqlmockConnection(t *testing.T) (dbadapter.DBConnection, sqlmock.Sqlmock) {
	t.Helper()
	gormDB, mock := NewSqlmockDB(t)
	conn := gormadapter.NewGormDBConnection(gormDB, dbconfig.DatabaseConfig{Type: "postgres"}, "catalog")
	return &nopCloseConnection{DBConnection: conn}, mock
}

type nopCloseConnection struct {
	dbadapter.DBConnection
}

func (c *nopCloseConnection) Close() error { return nil }

// MockDBProvider is a testify mock of dbadapter.DBProvider.
type MockDBProvider struct {
	mock.Mock
}

// Connect mocks the Connect method.
func (m *MockDBProvider) Connect(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	conn, _ := args.Get(0).(dbadapter.DBConnection)
	return conn, args.Error(1)
}

// Type mocks the Type method.
func (m *MockDBProvider) Type() string {
	return "postgres"
}

// NewSingleConnectionProvider returns a provider that hands out conn for every Connect call.
func NewSingleConnectionProvider(conn dbadapter.DBConnection) *MockDBProvider {
	p := &MockDBProvider{}
	p.On("Connect", mock.Anything, mock.Anything).Return(conn, nil)
	return p
}
