package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i, table := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		f.formatTable(table, s.IncomingRelations(table.Name))
	}
	return nil
}

func (f *TextFormatter) formatTable(table schema.Table, incoming []schema.IncomingRelation) {
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatTextColumn(col))
	}

	if len(table.Relations) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range table.Relations {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s (%s, ON DELETE %s)\n",
				rel.SourceColumn, rel.TargetTable, rel.TargetColumn, rel.Cardinality, deleteRule(rel.OnDelete))
		}
	}

	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  REFERENCED BY:")
		for _, rel := range incoming {
			_, _ = fmt.Fprintf(f.writer, "    %s.%s\n", rel.SourceTable, rel.SourceColumn)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func formatTextColumn(col schema.Column) string {
	parts := []string{col.Name + ":", typeString(col)}

	if col.AutoIncrement {
		parts = append(parts, "AUTO")
	}
	if col.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	return strings.Join(parts, " ")
}

// typeString shows the catalog's logical varchar with its size.
func typeString(col schema.Column) string {
	if col.Type == schema.TypeVarchar && col.Size > 0 {
		return fmt.Sprintf("%s(%d)", col.Type, col.Size)
	}
	return col.Type
}
