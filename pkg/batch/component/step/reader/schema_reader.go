// Package reader fetches the inputs of a generation run from the database catalog.
package reader

import (
	"context"
	"strings"
	"sync"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const schemaModule = "schema_reader"

// schemaQueryBase lists one row per column of every base table. Rows come back grouped
// by table and in column order, so they can be folded into TableSchema values in one pass.
const schemaQueryBase = `SELECT c.table_schema, c.table_name, c.column_name, c.data_type
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_type = 'BASE TABLE'`

const schemaQueryOrder = `
ORDER BY c.table_schema, c.table_name, c.ordinal_position`

type columnRow struct {
	TableSchema string `gorm:"column:table_schema"`
	TableName   string `gorm:"column:table_name"`
	ColumnName  string `gorm:"column:column_name"`
	DataType    string `gorm:"column:data_type"`
}

// SchemaProvider returns the base tables outside the ignored schemas.
// The first successful fetch is cached for the lifetime of the provider;
// an empty cache (never filled, or the last fetch failed) triggers a new query.
type SchemaProvider struct {
	db             database.DBProvider
	dbRef          string
	ignoredSchemas []string

	mu    sync.Mutex
	cache []model.TableSchema
}

// NewSchemaProvider creates a SchemaProvider reading through the dbRef connection.
func NewSchemaProvider(db database.DBProvider, dbRef string, ignoredSchemas []string) *SchemaProvider {
	return &SchemaProvider{
		db:             db,
		dbRef:          dbRef,
		ignoredSchemas: append([]string(nil), ignoredSchemas...),
	}
}

// FetchSchemas returns the cached snapshot or queries the catalog.
// Concurrent callers wait for the in-flight query instead of issuing their own.
func (p *SchemaProvider) FetchSchemas(ctx context.Context) ([]model.TableSchema, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.cache) > 0 {
		return p.cache, nil
	}

	schemas, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, exception.NewBatchErrorf(exception.ErrEmptyResult, schemaModule,
			"no base tables found outside ignored schemas (%s)", strings.Join(p.ignoredSchemas, ", "))
	}
	p.cache = schemas
	logger.Debugf("Cached %d table schemas", len(schemas))
	return schemas, nil
}

func (p *SchemaProvider) fetch(ctx context.Context) ([]model.TableSchema, error) {
	conn, err := p.db.Connect(ctx, p.dbRef)
	if err != nil {
		return nil, err
	}
	defer closeConnection(conn)

	query := schemaQueryBase
	var args []interface{}
	if len(p.ignoredSchemas) > 0 {
		query += "\n  AND c.table_schema NOT IN ?"
		args = append(args, p.ignoredSchemas)
	}
	query += schemaQueryOrder

	var rows []columnRow
	if err := conn.QueryRaw(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	schemas := groupColumns(rows)
	for _, s := range schemas {
		logger.Debugf("Table %s: %d columns", s.QualifiedName(), len(s.Columns))
	}
	return schemas, nil
}

// groupColumns folds consecutive rows of the same table into one TableSchema.
func groupColumns(rows []columnRow) []model.TableSchema {
	var schemas []model.TableSchema
	for _, row := range rows {
		n := len(schemas)
		if n == 0 || schemas[n-1].SchemaName != row.TableSchema || schemas[n-1].TableName != row.TableName {
			schemas = append(schemas, model.TableSchema{
				SchemaName: row.TableSchema,
				TableName:  row.TableName,
				Columns:    []string{},
				DataTypes:  []string{},
			})
			n++
		}
		schemas[n-1].AddColumn(row.ColumnName, row.DataType)
	}
	return schemas
}

func closeConnection(conn database.DBConnection) {
	if err := conn.Close(); err != nil {
		logger.Warnf("Failed to close DB connection '%s': %v", conn.Name(), err)
	}
}
