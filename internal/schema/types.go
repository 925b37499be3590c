package schema

import "strings"

// Delete and update rules as reported by information_schema.
const (
	RuleRestrict = "RESTRICT"
	RuleNoAction = "NO ACTION"
	RuleCascade  = "CASCADE"
	RuleSetNull  = "SET NULL"
)

// Schema represents a complete database schema
type Schema struct {
	Tables []Table `yaml:"tables"`
}

// Table represents a database table
type Table struct {
	Name       string     `yaml:"name"`
	Columns    []Column   `yaml:"columns"`
	Relations  []Relation `yaml:"relations,omitempty"`
	Indexes    []Index    `yaml:"indexes,omitempty"`
	PrimaryKey []string   `yaml:"primary_key,omitempty"`
}

// Column represents a table column.
// For catalog columns Type is a logical type (serial, reference, varchar,
// boolean, timestamp); extracted columns carry the database's own type name.
type Column struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	Size          int     `yaml:"size,omitempty"`
	Nullable      bool    `yaml:"nullable"`
	DefaultValue  *string `yaml:"default,omitempty"`
	IsUnique      bool    `yaml:"unique,omitempty"`
	AutoIncrement bool    `yaml:"auto_increment,omitempty"`
}

// Relation represents a foreign key relationship
type Relation struct {
	TargetTable  string `yaml:"target_table"`
	TargetColumn string `yaml:"target_column"`
	SourceColumn string `yaml:"source_column"`
	Cardinality  string `yaml:"cardinality"` // 1:1, 1:N, N:1
	OnDelete     string `yaml:"on_delete,omitempty"`
	OnUpdate     string `yaml:"on_update,omitempty"`
}

// Index represents a database index
type Index struct {
	Name     string   `yaml:"name"`
	Columns  []string `yaml:"columns"`
	IsUnique bool     `yaml:"unique,omitempty"`
}

// IncomingRelation is a foreign key seen from the table it points at.
type IncomingRelation struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	Cardinality  string
	OnDelete     string
}

// FindTable returns the named table, or nil. Names compare case-insensitively.
func (s *Schema) FindTable(name string) *Table {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

// IncomingRelations lists every foreign key that points at tableName.
func (s *Schema) IncomingRelations(tableName string) []IncomingRelation {
	var incoming []IncomingRelation

	for _, table := range s.Tables {
		for _, rel := range table.Relations {
			if strings.EqualFold(rel.TargetTable, tableName) {
				incoming = append(incoming, IncomingRelation{
					SourceTable:  table.Name,
					SourceColumn: rel.SourceColumn,
					TargetTable:  rel.TargetTable,
					TargetColumn: rel.TargetColumn,
					Cardinality:  rel.Cardinality,
					OnDelete:     rel.OnDelete,
				})
			}
		}
	}

	return incoming
}

// FindColumn returns the named column, or nil.
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// FindRelation returns the foreign key declared on sourceColumn, or nil.
func (t *Table) FindRelation(sourceColumn string) *Relation {
	for i := range t.Relations {
		if strings.EqualFold(t.Relations[i].SourceColumn, sourceColumn) {
			return &t.Relations[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether column is part of the table's primary key.
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKey {
		if strings.EqualFold(pk, column) {
			return true
		}
	}
	return false
}

// IsRestrictive reports whether a delete rule blocks deleting referenced rows.
// An empty rule is the SQL default, NO ACTION.
func IsRestrictive(rule string) bool {
	switch strings.ToUpper(strings.TrimSpace(rule)) {
	case "", RuleRestrict, RuleNoAction:
		return true
	}
	return false
}
