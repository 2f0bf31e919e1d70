package model

// TableSchema describes one base table. Columns and DataTypes are positionally aligned:
// DataTypes[i] is the type of Columns[i]. Use AddColumn to keep them that way.
type TableSchema struct {
	SchemaName string   `json:"table_schema"`
	TableName  string   `json:"table_name"`
	Columns    []string `json:"columns"`
	DataTypes  []string `json:"data_types"`
}

// QualifiedName returns schema.table.
func (t TableSchema) QualifiedName() string {
	return t.SchemaName + "." + t.TableName
}

// AddColumn appends a column and its type as a pair.
func (t *TableSchema) AddColumn(name, dataType string) {
	t.Columns = append(t.Columns, name)
	t.DataTypes = append(t.DataTypes, dataType)
}

// ReferenceDocument is one guidance text handed to the generator.
type ReferenceDocument struct {
	Name    string
	Content string
}

// ReferenceCorpus is the ordered set of guidance documents shared by every job.
type ReferenceCorpus struct {
	Documents []ReferenceDocument
}

// Len returns the number of documents.
func (c ReferenceCorpus) Len() int {
	return len(c.Documents)
}
