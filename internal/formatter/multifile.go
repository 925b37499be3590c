package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes an overview file plus one file per table
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(s); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range s.Tables {
		if err := f.writeTableFile(table, s.IncomingRelations(table.Name)); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(s *schema.Schema) error {
	ext := f.getFileExtension()
	filename := filepath.Join(f.OutputDir, "_overview"+ext)

	var buf bytes.Buffer
	sortedTables := make([]schema.Table, len(s.Tables))
	copy(sortedTables, s.Tables)
	sort.Slice(sortedTables, func(i, j int) bool {
		return sortedTables[i].Name < sortedTables[j].Name
	})

	if f.OutputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(&buf, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(&buf, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(&buf, "## Tables\n\n")
	} else {
		_, _ = fmt.Fprintf(&buf, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(&buf, "Each table has a file: <table_name>%s\n\n", ext)
	}

	for _, table := range sortedTables {
		if f.OutputFormat == FormatMarkdown {
			_, _ = fmt.Fprintf(&buf, "- **%s**", table.Name)
		} else {
			_, _ = fmt.Fprintf(&buf, "%s", table.Name)
		}

		if targets := referencedTables(table); len(targets) > 0 {
			_, _ = fmt.Fprintf(&buf, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintln(&buf)
	}

	return writeFile(filename, buf.Bytes())
}

// referencedTables lists each parent table once, in declaration order.
func referencedTables(table schema.Table) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, rel := range table.Relations {
		if !seen[rel.TargetTable] {
			seen[rel.TargetTable] = true
			targets = append(targets, rel.TargetTable)
		}
	}
	return targets
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(table schema.Table, incoming []schema.IncomingRelation) error {
	filename := filepath.Join(f.OutputDir, table.Name+f.getFileExtension())

	var buf bytes.Buffer
	if f.OutputFormat == FormatMarkdown {
		NewMarkdownFormatter(&buf).FormatTable(table, incoming)
	} else {
		NewTextFormatter(&buf).formatTable(table, incoming)
	}

	return writeFile(filename, buf.Bytes())
}

// writeFile reports write and close failures alike.
func writeFile(filename string, data []byte) error {
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == FormatMarkdown {
		return ".md"
	}
	return ".txt"
}
