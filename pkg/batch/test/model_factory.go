package test

import (
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// NewTestPolicy returns a SELECT policy on public.<table> owned by the row's user_id.
func NewTestPolicy(table, name string) model.Policy {
	return model.Policy{
		SchemaName: "public",
		TableName:  table,
		PolicyName: name,
		Permissive: "PERMISSIVE",
		Roles:      []string{"authenticated"},
		Command:    model.CommandSelect,
		Qual:       StringPtr("(auth.uid() = user_id)"),
	}
}

// NewTestSchemas returns two small tables in the public schema.
func NewTestSchemas() []model.TableSchema {
	profiles := model.TableSchema{SchemaName: "public", TableName: "profiles"}
	profiles.AddColumn("id", "uuid")
	profiles.AddColumn("user_id", "uuid")
	profiles.AddColumn("username", "text")

	posts := model.TableSchema{SchemaName: "public", TableName: "posts"}
	posts.AddColumn("id", "bigint")
	posts.AddColumn("user_id", "uuid")
	posts.AddColumn("body", "text")

	return []model.TableSchema{posts, profiles}
}

// NewTestCorpus returns a two-document reference corpus.
func NewTestCorpus() model.ReferenceCorpus {
	return model.ReferenceCorpus{Documents: []model.ReferenceDocument{
		{Name: "01-basics.md", Content: "Use SELECT plan(n) and finish()."},
		{Name: "02-roles.md", Content: "Switch roles with SET LOCAL ROLE authenticated."},
	}}
}
