package schema

import (
	"fmt"
	"strings"
)

// Dialect names a SQL flavour the catalog can be rendered for.
type Dialect string

const (
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectSQLite    Dialect = "sqlite"
	DialectSQLServer Dialect = "sqlserver"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{DialectPostgres, DialectMySQL, DialectSQLite, DialectSQLServer}

// ParseDialect accepts a dialect name as given on the command line.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "sqlserver", "mssql":
		return DialectSQLServer, nil
	}
	return "", fmt.Errorf("unsupported dialect: %s", name)
}

// DDL renders the statements that create every table of s, in order.
func (s *Schema) DDL(d Dialect) ([]string, error) {
	var stmts []string
	for _, table := range s.Tables {
		stmt, err := CreateTable(table, d)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table.Name, err)
		}
		stmts = append(stmts, stmt)
		stmts = append(stmts, CreateIndexes(table, d)...)
	}
	return stmts, nil
}

// CreateTable renders one CREATE TABLE statement.
// MySQL indexes are declared inline so foreign keys reuse them.
func CreateTable(t Table, d Dialect) (string, error) {
	var lines []string

	for _, col := range t.Columns {
		def, err := columnDefinition(col, t.IsPrimaryKey(col.Name) && len(t.PrimaryKey) == 1, d)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		lines = append(lines, def)
	}

	if len(t.PrimaryKey) > 1 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}

	if d == DialectMySQL {
		for _, idx := range t.Indexes {
			kind := "KEY"
			if idx.IsUnique {
				kind = "UNIQUE KEY"
			}
			lines = append(lines, fmt.Sprintf("%s %s (%s)", kind, idx.Name, strings.Join(idx.Columns, ", ")))
		}
	}

	for _, rel := range t.Relations {
		lines = append(lines, foreignKeyDefinition(t.Name, rel, d))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", t.Name, strings.Join(lines, ",\n\t"))
	if d == DialectMySQL {
		stmt += " ENGINE=InnoDB"
	}
	return stmt, nil
}

// CreateIndexes renders the CREATE INDEX statements of a table.
// It returns nothing for MySQL, where CreateTable already declared them.
func CreateIndexes(t Table, d Dialect) []string {
	if d == DialectMySQL {
		return nil
	}

	var stmts []string
	for _, idx := range t.Indexes {
		kind := "INDEX"
		if idx.IsUnique {
			kind = "UNIQUE INDEX"
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, idx.Name, t.Name, strings.Join(idx.Columns, ", ")))
	}
	return stmts
}

func columnDefinition(col Column, soloPK bool, d Dialect) (string, error) {
	if col.Type == TypeSerial {
		switch d {
		case DialectPostgres:
			return col.Name + " BIGSERIAL PRIMARY KEY", nil
		case DialectMySQL:
			return col.Name + " BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY", nil
		case DialectSQLite:
			return col.Name + " INTEGER PRIMARY KEY AUTOINCREMENT", nil
		case DialectSQLServer:
			return col.Name + " BIGINT IDENTITY(1,1) PRIMARY KEY", nil
		}
		return "", fmt.Errorf("unsupported dialect: %s", d)
	}

	sqlType, err := sqlType(col, d)
	if err != nil {
		return "", err
	}

	parts := []string{col.Name, sqlType}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+defaultLiteral(col, d))
	}
	if soloPK {
		parts = append(parts, "PRIMARY KEY")
	}
	return strings.Join(parts, " "), nil
}

func sqlType(col Column, d Dialect) (string, error) {
	switch col.Type {
	case TypeReference:
		switch d {
		case DialectMySQL:
			return "BIGINT UNSIGNED", nil
		case DialectSQLite:
			return "INTEGER", nil
		default:
			return "BIGINT", nil
		}
	case TypeVarchar:
		if d == DialectSQLServer {
			return fmt.Sprintf("NVARCHAR(%d)", col.Size), nil
		}
		return fmt.Sprintf("VARCHAR(%d)", col.Size), nil
	case TypeBoolean:
		if d == DialectSQLServer {
			return "BIT", nil
		}
		return "BOOLEAN", nil
	case TypeTimestamp:
		switch d {
		case DialectPostgres:
			return "TIMESTAMPTZ", nil
		case DialectMySQL:
			return "DATETIME(6)", nil
		case DialectSQLServer:
			return "DATETIME2", nil
		default:
			return "DATETIME", nil
		}
	}
	return "", fmt.Errorf("unknown column type %q", col.Type)
}

func defaultLiteral(col Column, d Dialect) string {
	value := *col.DefaultValue
	if col.Type != TypeBoolean {
		return value
	}
	if d == DialectSQLite || d == DialectSQLServer {
		if value == defaultTrue {
			return "1"
		}
		return "0"
	}
	return strings.ToUpper(value)
}

// SQL Server has no RESTRICT; NO ACTION rejects the same deletes.
func foreignKeyDefinition(table string, rel Relation, d Dialect) string {
	onDelete, onUpdate := rel.OnDelete, rel.OnUpdate
	if onDelete == "" {
		onDelete = RuleRestrict
	}
	if onUpdate == "" {
		onUpdate = RuleRestrict
	}
	if d == DialectSQLServer {
		if onDelete == RuleRestrict {
			onDelete = RuleNoAction
		}
		if onUpdate == RuleRestrict {
			onUpdate = RuleNoAction
		}
	}

	return fmt.Sprintf("CONSTRAINT fk_%s_%s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		table, rel.SourceColumn,
		rel.SourceColumn,
		rel.TargetTable, rel.TargetColumn,
		onDelete, onUpdate)
}
