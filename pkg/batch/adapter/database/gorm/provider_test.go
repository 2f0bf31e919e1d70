package gorm_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database/gorm/postgres"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	testutil "github.com/tigerroll/rlsgen/pkg/batch/test"
)

func TestConnectionString(t *testing.T) {
	cfg := dbconfig.DatabaseConfig{
		Type:     "postgres",
		Host:     "pg_host",
		Port:     5432,
		Database: "pg_db",
		User:     "pg_user",
		Password: "pg_password",
		Sslmode:  "require",
	}
	assert.Equal(t, "host=pg_host port=5432 user=pg_user password=pg_password dbname=pg_db sslmode=require",
		postgres.ConnectionString(cfg))
}

type nameRow struct {
	Name string
}

func TestGormDBConnection_QueryRaw(t *testing.T) {
	gormDB, mock := testutil.NewSqlmockDB(t)
	conn := gormadapter.NewGormDBConnection(gormDB, dbconfig.DatabaseConfig{Type: "postgres"}, "catalog")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM t WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))

	var rows []nameRow
	require.NoError(t, conn.QueryRaw(context.Background(), &rows, "SELECT name FROM t WHERE id = ?", 7))
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1].Name)
	assert.Equal(t, "catalog", conn.Name())
	assert.Equal(t, "postgres", conn.Type())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDBConnection_ClassifiesPgErrors(t *testing.T) {
	gormDB, mock := testutil.NewSqlmockDB(t)
	conn := gormadapter.NewGormDBConnection(gormDB, dbconfig.DatabaseConfig{Type: "postgres"}, "catalog")

	mock.ExpectQuery("SELECT").WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied for view pg_policies"})

	var rows []nameRow
	err := conn.QueryRaw(context.Background(), &rows, "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrConnection)
	assert.Contains(t, err.Error(), "SQLSTATE 42501")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestClassifyError_Transport(t *testing.T) {
	err := gormadapter.ClassifyError("ping", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))
	assert.ErrorIs(t, err, exception.ErrConnection)
	assert.True(t, exception.IsTemporary(err))
}

func TestBaseProvider_ConfigurationErrors(t *testing.T) {
	cfg := config.NewConfig()
	cfg.RLSGen.AdapterConfigs["mysqlish"] = map[string]interface{}{"type": "mysql"}
	p := postgres.NewProvider(cfg)
	assert.Equal(t, "postgres", p.Type())

	_, err := p.Connect(context.Background(), "missing")
	assert.ErrorIs(t, err, exception.ErrConfiguration)

	_, err = p.Connect(context.Background(), "mysqlish")
	assert.ErrorIs(t, err, exception.ErrConfiguration)
	assert.Contains(t, err.Error(), "type mismatch")
}

func TestGetDialectorFactory(t *testing.T) {
	_, err := gormadapter.GetDialectorFactory("postgres")
	assert.NoError(t, err)
	_, err = gormadapter.GetDialectorFactory("oracle")
	assert.Error(t, err)
}
