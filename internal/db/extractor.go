// Package db reads the live schema of a database so it can be shown or
// compared against the catalog.
package db

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// SchemaExtractor reads tables, keys and indexes from one database.
type SchemaExtractor interface {
	// ExtractSchema extracts the named tables, or every table when tables
	// is empty.
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
	Close(ctx context.Context) error
}

// NewSchemaExtractor connects to conn and returns the extractor for its
// dialect. schemaName is ignored by SQLite; empty means the dialect default.
func NewSchemaExtractor(ctx context.Context, dialect schema.Dialect, conn, schemaName string) (SchemaExtractor, error) {
	switch dialect {
	case schema.DialectPostgres:
		client, err := NewPostgresClient(ctx, conn)
		if err != nil {
			return nil, err
		}
		if schemaName == "" {
			schemaName = "public"
		}
		return NewPostgresExtractor(client, schemaName), nil

	case schema.DialectMySQL:
		client, err := NewMySQLClient(ctx, conn)
		if err != nil {
			return nil, err
		}
		if schemaName == "" {
			schemaName, err = client.CurrentDatabase(ctx)
			if err != nil {
				_ = client.Close()
				return nil, err
			}
		}
		return NewMySQLExtractor(client, schemaName), nil

	case schema.DialectSQLite:
		client, err := NewSQLiteClient(ctx, conn)
		if err != nil {
			return nil, err
		}
		return NewSQLiteExtractor(client), nil

	case schema.DialectSQLServer:
		client, err := NewSQLServerClient(ctx, conn)
		if err != nil {
			return nil, err
		}
		if schemaName == "" {
			schemaName = "dbo"
		}
		return NewSQLServerExtractor(client, schemaName), nil
	}

	return nil, fmt.Errorf("unsupported database type: %s", dialect)
}

// finishTable derives what every dialect reports the same way: a column is
// unique when a single-column unique index covers it, and a foreign key on
// a unique column is one-to-one.
func finishTable(table *schema.Table) {
	for _, idx := range table.Indexes {
		if !idx.IsUnique || len(idx.Columns) != 1 {
			continue
		}
		if col := table.FindColumn(idx.Columns[0]); col != nil {
			col.IsUnique = true
		}
	}

	for i := range table.Relations {
		rel := &table.Relations[i]
		if col := table.FindColumn(rel.SourceColumn); col != nil && col.IsUnique {
			rel.Cardinality = "1:1"
		} else {
			rel.Cardinality = "N:1"
		}
	}
}

// normalizeRule turns NO_ACTION, no action and friends into NO ACTION.
func normalizeRule(rule string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rule), "_", " "))
}

var sizePattern = regexp.MustCompile(`\((\d+)\)`)

// typeSize reads the length out of a declared type such as VARCHAR(50).
func typeSize(declared string) int {
	m := sizePattern.FindStringSubmatch(declared)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
