package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tigerroll/rlsgen/pkg/batch/adapter/database"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// policyQuery reads every row-level security policy. roles is name[] in the catalog
// and is read as text[] so quoted role names keep their commas.
const policyQuery = `SELECT schemaname, tablename, policyname, permissive,
  roles::text[] AS roles, cmd, qual, with_check
FROM pg_policies`

// roleArray scans a Postgres text[] literal into its elements.
type roleArray []string

// Scan implements sql.Scanner using the pgx array codec.
func (a *roleArray) Scan(src interface{}) error {
	if src == nil {
		*a = roleArray{}
		return nil
	}
	var roles []string
	if err := pgtype.NewMap().SQLScanner(&roles).Scan(src); err != nil {
		return fmt.Errorf("scan roles %v: %w", src, err)
	}
	if roles == nil {
		roles = []string{}
	}
	*a = roles
	return nil
}

type policyRow struct {
	SchemaName string    `gorm:"column:schemaname"`
	TableName  string    `gorm:"column:tablename"`
	PolicyName string    `gorm:"column:policyname"`
	Permissive string    `gorm:"column:permissive"`
	Roles      roleArray `gorm:"column:roles"`
	Cmd        string    `gorm:"column:cmd"`
	Qual       *string   `gorm:"column:qual"`
	WithCheck  *string   `gorm:"column:with_check"`
}

// PolicySource reads pg_policies. Nothing is cached.
type PolicySource struct {
	db    database.DBProvider
	dbRef string
}

// NewPolicySource creates a PolicySource reading through the dbRef connection.
func NewPolicySource(db database.DBProvider, dbRef string) *PolicySource {
	return &PolicySource{db: db, dbRef: dbRef}
}

// FetchPolicies returns every policy in catalog order. An empty result is not an error here.
func (s *PolicySource) FetchPolicies(ctx context.Context) ([]model.Policy, error) {
	conn, err := s.db.Connect(ctx, s.dbRef)
	if err != nil {
		return nil, err
	}
	defer closeConnection(conn)

	var rows []policyRow
	if err := conn.QueryRaw(ctx, &rows, policyQuery); err != nil {
		return nil, err
	}

	policies := make([]model.Policy, 0, len(rows))
	for _, row := range rows {
		policies = append(policies, toPolicy(row))
	}
	return policies, nil
}

func toPolicy(row policyRow) model.Policy {
	cmd, err := model.ParseCommandKind(row.Cmd)
	if err != nil {
		logger.Warnf("Policy %s.%s.%s: %v; passing it through unchanged", row.SchemaName, row.TableName, row.PolicyName, err)
		cmd = model.CommandKind(strings.ToUpper(row.Cmd))
	}
	return model.Policy{
		SchemaName: row.SchemaName,
		TableName:  row.TableName,
		PolicyName: row.PolicyName,
		Permissive: row.Permissive,
		Roles:      []string(row.Roles),
		Command:    cmd,
		Qual:       row.Qual,
		WithCheck:  row.WithCheck,
	}
}
