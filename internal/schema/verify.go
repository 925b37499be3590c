package schema

import (
	"fmt"
	"strings"
)

// Finding is one difference between the expected and a live schema.
type Finding struct {
	Table   string `yaml:"table"`
	Column  string `yaml:"column,omitempty"`
	Message string `yaml:"message"`
}

func (f Finding) String() string {
	if f.Column == "" {
		return fmt.Sprintf("%s: %s", f.Table, f.Message)
	}
	return fmt.Sprintf("%s.%s: %s", f.Table, f.Column, f.Message)
}

// Verify compares an extracted schema against the expected one.
// Column types are not compared: extracted types are dialect names.
// Extra tables or columns in actual are ignored.
func Verify(expected, actual *Schema) []Finding {
	var findings []Finding

	for _, want := range expected.Tables {
		got := actual.FindTable(want.Name)
		if got == nil {
			findings = append(findings, Finding{Table: want.Name, Message: "table is missing"})
			continue
		}

		for _, col := range want.Columns {
			gotCol := got.FindColumn(col.Name)
			if gotCol == nil {
				findings = append(findings, Finding{Table: want.Name, Column: col.Name, Message: "column is missing"})
				continue
			}
			// Primary keys are reported nullable by some drivers.
			if want.IsPrimaryKey(col.Name) {
				continue
			}
			if gotCol.Nullable != col.Nullable {
				findings = append(findings, Finding{
					Table:   want.Name,
					Column:  col.Name,
					Message: fmt.Sprintf("nullable is %t, want %t", gotCol.Nullable, col.Nullable),
				})
			}
		}

		for _, rel := range want.Relations {
			gotRel := got.FindRelation(rel.SourceColumn)
			if gotRel == nil {
				findings = append(findings, Finding{
					Table:   want.Name,
					Column:  rel.SourceColumn,
					Message: fmt.Sprintf("foreign key to %s is missing", rel.TargetTable),
				})
				continue
			}
			if !strings.EqualFold(gotRel.TargetTable, rel.TargetTable) {
				findings = append(findings, Finding{
					Table:   want.Name,
					Column:  rel.SourceColumn,
					Message: fmt.Sprintf("foreign key points to %s, want %s", gotRel.TargetTable, rel.TargetTable),
				})
			}
			if !IsRestrictive(gotRel.OnDelete) {
				findings = append(findings, Finding{
					Table:   want.Name,
					Column:  rel.SourceColumn,
					Message: fmt.Sprintf("foreign key to %s deletes with %s, want %s", rel.TargetTable, gotRel.OnDelete, RuleRestrict),
				})
			}
		}
	}

	return findings
}
