package formatter

import (
	"fmt"
	"io"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// SQLFormatter writes the statements that create the schema.
type SQLFormatter struct {
	writer  io.Writer
	dialect schema.Dialect
}

func NewSQLFormatter(w io.Writer, dialect schema.Dialect) *SQLFormatter {
	return &SQLFormatter{writer: w, dialect: dialect}
}

// Format fails for extracted schemas whose column types are not the
// catalog's logical types.
func (f *SQLFormatter) Format(s *schema.Schema) error {
	stmts, err := s.DDL(f.dialect)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(f.writer, "-- dialect: %s\n\n", f.dialect)
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(f.writer, "%s;\n\n", stmt); err != nil {
			return err
		}
	}
	return nil
}
