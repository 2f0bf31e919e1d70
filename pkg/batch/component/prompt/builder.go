// Package prompt renders the instruction text sent to the generation endpoint.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

const (
	SchemasStart = "--- START: TABLE SCHEMAS ---"
	SchemasEnd   = "--- END: TABLE SCHEMAS ---"
)

const taskDescription = `Generate a sql file using pgTap to test the following RLS policy.
Include comprehensive test cases for both positive and negative scenarios.
Below is the schemas for all tables:`

const constraints = `Cover edge cases related to the policy's qual and with_check conditions.
ONLY INCLUDE THE FILE CONTENTS.
DO NOT INCLUDE THE FILE NAME OR ANY OTHER INFORMATION.
DO NOT PUT THE CONTENTS IN A CODEBLOCK.
MAKE SURE TO ROLLBACK ANY CHANGES MADE TO THE DATABASE.`

// GuideStart returns the opening marker of the i-th reference document.
func GuideStart(i int) string {
	return fmt.Sprintf("--- START GUIDE #%d ---", i)
}

// GuideEnd returns the closing marker of the i-th reference document.
func GuideEnd(i int) string {
	return fmt.Sprintf("--- END GUIDE #%d ---", i)
}

// Build renders the prompt for one policy. The policy JSON is always the last block.
// Build is deterministic and never fails.
func Build(schemas []model.TableSchema, policy model.Policy, corpus model.ReferenceCorpus) string {
	var b strings.Builder

	b.WriteString(taskDescription)
	b.WriteString("\n\n")

	b.WriteString(SchemasStart)
	b.WriteByte('\n')
	for _, s := range schemas {
		b.WriteString(indentJSON(s))
		b.WriteByte('\n')
	}
	b.WriteString(SchemasEnd)
	b.WriteString("\n\n")

	b.WriteString("Use the following guides as references to write the test cases:\n\n")
	for i, doc := range corpus.Documents {
		b.WriteString(GuideStart(i))
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(doc.Content, "\n"))
		b.WriteByte('\n')
		b.WriteString(GuideEnd(i))
		b.WriteString("\n\n")
	}

	b.WriteString(constraints)
	b.WriteByte('\n')
	b.WriteString(indentJSON(policy))
	b.WriteByte('\n')
	return b.String()
}

// indentJSON marshals plain data structs, which cannot fail.
func indentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
