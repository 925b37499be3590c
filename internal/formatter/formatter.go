// Package formatter renders a schema for people and tools: compact text,
// markdown, YAML, or the DDL that would create it.
package formatter

import (
	"fmt"
	"io"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
	FormatSQL      = "sql"
)

// Formatter writes a whole schema.
type Formatter interface {
	Format(s *schema.Schema) error
}

// New returns the formatter for format writing to w. The dialect is only
// used by the sql format.
func New(format string, w io.Writer, dialect schema.Dialect) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	case FormatYAML, "yml":
		return NewYAMLFormatter(w), nil
	case FormatSQL:
		if dialect == "" {
			dialect = schema.DialectPostgres
		}
		return NewSQLFormatter(w, dialect), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// FormatCardinality describes a relation in words, e.g. "many vehicles to
// one transport_companies".
func FormatCardinality(cardinality, sourceTable, targetTable string) string {
	switch cardinality {
	case "1:1":
		return fmt.Sprintf("one %s to one %s", sourceTable, targetTable)
	case "1:N":
		return fmt.Sprintf("one %s to many %s", sourceTable, targetTable)
	case "N:1":
		return fmt.Sprintf("many %s to one %s", sourceTable, targetTable)
	}
	return cardinality
}

// deleteRule is the rule shown for a relation; unset means the SQL default.
func deleteRule(rule string) string {
	if rule == "" {
		return schema.RuleNoAction
	}
	return rule
}
