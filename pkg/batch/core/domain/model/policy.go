// Package model holds the immutable data that flows through a generation run:
// policies and table schemas read from the catalog, the reference corpus, and the
// per-policy jobs and results handled by the dispatcher.
package model

import (
	"fmt"
	"strings"
)

// CommandKind is the statement kind a policy applies to.
type CommandKind string

const (
	CommandAll    CommandKind = "ALL"
	CommandSelect CommandKind = "SELECT"
	CommandInsert CommandKind = "INSERT"
	CommandUpdate CommandKind = "UPDATE"
	CommandDelete CommandKind = "DELETE"
)

// ParseCommandKind converts a catalog value (case-insensitive) into a CommandKind.
func ParseCommandKind(s string) (CommandKind, error) {
	switch c := CommandKind(strings.ToUpper(strings.TrimSpace(s))); c {
	case CommandAll, CommandSelect, CommandInsert, CommandUpdate, CommandDelete:
		return c, nil
	default:
		return "", fmt.Errorf("unknown policy command %q", s)
	}
}

// String returns the string representation of the CommandKind.
func (c CommandKind) String() string {
	return string(c)
}

// Policy is one row of pg_policies. The JSON names follow the catalog columns
// because the policy is handed to the generator verbatim.
type Policy struct {
	SchemaName string      `json:"schemaname"`
	TableName  string      `json:"tablename"`
	PolicyName string      `json:"policyname"`
	Permissive string      `json:"permissive"`
	Roles      []string    `json:"roles"`
	Command    CommandKind `json:"cmd"`
	Qual       *string     `json:"qual"`
	WithCheck  *string     `json:"with_check"`
}

// Identity returns schema.table.policy, which is unique in the catalog
// even when policy names repeat across tables.
func (p Policy) Identity() string {
	return p.SchemaName + "." + p.TableName + "." + p.PolicyName
}

// IsPermissive reports whether the policy is PERMISSIVE rather than RESTRICTIVE.
func (p Policy) IsPermissive() bool {
	return strings.EqualFold(p.Permissive, "PERMISSIVE")
}
