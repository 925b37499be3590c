package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range s.Tables {
		f.FormatTable(table, s.IncomingRelations(table.Name))
	}
	return nil
}

// FormatTable writes one table section, including the foreign keys that
// point at it.
func (f *MarkdownFormatter) FormatTable(table schema.Table, incoming []schema.IncomingRelation) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	f.FormatColumns(table)
	f.FormatRelations(table.Name, table.Relations)
	f.FormatIncoming(incoming)
	f.formatIndexes(table.Indexes)
}

// FormatColumns writes the column list of a table.
func (f *MarkdownFormatter) FormatColumns(table schema.Table) {
	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	for _, col := range table.Columns {
		constraintStr := f.formatConstraints(col, &table)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, typeString(col), constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, typeString(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)
}

// FormatRelations writes the outgoing foreign keys of a table.
func (f *MarkdownFormatter) FormatRelations(tableName string, relations []schema.Relation) {
	if len(relations) == 0 {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "### References")
	_, _ = fmt.Fprintln(f.writer)
	for _, rel := range relations {
		_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s, on delete %s)\n",
			rel.SourceColumn,
			rel.TargetTable,
			rel.TargetColumn,
			FormatCardinality(rel.Cardinality, tableName, rel.TargetTable),
			strings.ToLower(deleteRule(rel.OnDelete)))
	}
	_, _ = fmt.Fprintln(f.writer)
}

// FormatIncoming writes the foreign keys of other tables that point here.
func (f *MarkdownFormatter) FormatIncoming(incoming []schema.IncomingRelation) {
	if len(incoming) == 0 {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "### Referenced by")
	_, _ = fmt.Fprintln(f.writer)
	for _, rel := range incoming {
		_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s (%s)\n",
			rel.SourceTable, rel.SourceColumn,
			rel.TargetColumn,
			FormatCardinality(rel.Cardinality, rel.SourceTable, rel.TargetTable))
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatIndexes(indexes []schema.Index) {
	if len(indexes) == 0 {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "### Idx")
	_, _ = fmt.Fprintln(f.writer)
	for _, idx := range indexes {
		if idx.IsUnique {
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
		} else {
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
		}
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatConstraints(col schema.Column, table *schema.Table) string {
	var constraints []string

	if table.IsPrimaryKey(col.Name) {
		constraints = append(constraints, "PK")
	}
	if col.IsUnique {
		constraints = append(constraints, "UNIQUE")
	}
	if !col.Nullable {
		constraints = append(constraints, "NOT NULL")
	}
	if col.DefaultValue != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}
	if rel := table.FindRelation(col.Name); rel != nil {
		constraints = append(constraints, "FK "+rel.TargetTable)
	}

	return strings.Join(constraints, ", ")
}
