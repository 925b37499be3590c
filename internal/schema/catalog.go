package schema

import (
	"fmt"

	"github.com/fieldtrace/fieldtrace/internal/model"
)

// Logical column types used by the catalog. DDL maps them per dialect.
const (
	TypeSerial    = "serial"
	TypeReference = "reference"
	TypeVarchar   = "varchar"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
)

const defaultTrue = "true"

// Catalog returns the schema of the supply-chain database, parents before
// children. Each call builds a fresh copy.
func Catalog() *Schema {
	return &Schema{Tables: []Table{
		newTable(model.TableUsers).
			varchar("username", 150, false).unique("username").
			varchar("full_name", 150, false).
			boolean("is_active").
			timestamp("date_joined").
			build(),

		newTable(model.TableTransportCompanies).audited().
			varchar("name", 50, false).
			build(),

		newTable(model.TableVehicles).audited().
			varchar("plate", 50, true).
			reference("company_id", model.TableTransportCompanies).
			build(),

		newTable(model.TableDrivers).audited().
			reference("vehicle_id", model.TableVehicles).
			reference("company_id", model.TableTransportCompanies).
			build(),

		newTable(model.TableProducers).audited().
			varchar("code", 20, false).
			build(),

		newTable(model.TablePlantations).audited().
			reference("producer_id", model.TableProducers).
			build(),

		newTable(model.TableBrands).audited().
			varchar("name", 50, false).
			reference("producer_id", model.TableProducers).
			build(),

		newTable(model.TableBoxTypes).audited().
			varchar("name", 50, false).
			build(),

		newTable(model.TablePorts).audited().
			varchar("name", 50, false).
			build(),

		newTable(model.TableProcesses).audited().
			reference("producer_id", model.TableProducers).
			reference("vehicle_id", model.TableVehicles).
			reference("driver_id", model.TableDrivers).
			reference("transport_company_id", model.TableTransportCompanies).
			build(),

		newTable(model.TableInspections).audited().
			reference("process_id", model.TableProcesses).
			build(),
	}}
}

// AuditColumns are the column names of the audit envelope.
var AuditColumns = []string{"created", "updated", "is_active", "is_enable", "created_by_id", "updated_by_id"}

type tableBuilder struct {
	table Table
}

func newTable(name string) *tableBuilder {
	return &tableBuilder{table: Table{
		Name:       name,
		Columns:    []Column{{Name: "id", Type: TypeSerial, AutoIncrement: true}},
		PrimaryKey: []string{"id"},
	}}
}

// audited applies the audit envelope.
func (b *tableBuilder) audited() *tableBuilder {
	return b.
		timestamp("created").
		timestamp("updated").
		boolean("is_active").
		boolean("is_enable").
		required("created_by_id", model.TableUsers).
		required("updated_by_id", model.TableUsers)
}

func (b *tableBuilder) varchar(name string, size int, nullable bool) *tableBuilder {
	b.table.Columns = append(b.table.Columns, Column{Name: name, Type: TypeVarchar, Size: size, Nullable: nullable})
	return b
}

func (b *tableBuilder) boolean(name string) *tableBuilder {
	def := defaultTrue
	b.table.Columns = append(b.table.Columns, Column{Name: name, Type: TypeBoolean, DefaultValue: &def})
	return b
}

func (b *tableBuilder) timestamp(name string) *tableBuilder {
	b.table.Columns = append(b.table.Columns, Column{Name: name, Type: TypeTimestamp})
	return b
}

// reference adds an optional foreign key. Every reference in this schema is
// nullable and restrict-on-delete.
func (b *tableBuilder) reference(column, target string) *tableBuilder {
	return b.foreignKey(column, target, true)
}

func (b *tableBuilder) required(column, target string) *tableBuilder {
	return b.foreignKey(column, target, false)
}

func (b *tableBuilder) foreignKey(column, target string, nullable bool) *tableBuilder {
	b.table.Columns = append(b.table.Columns, Column{Name: column, Type: TypeReference, Nullable: nullable})
	b.table.Relations = append(b.table.Relations, Relation{
		SourceColumn: column,
		TargetTable:  target,
		TargetColumn: "id",
		Cardinality:  "N:1",
		OnDelete:     RuleRestrict,
		OnUpdate:     RuleRestrict,
	})
	b.table.Indexes = append(b.table.Indexes, Index{
		Name:    indexName(b.table.Name, column),
		Columns: []string{column},
	})
	return b
}

func (b *tableBuilder) unique(column string) *tableBuilder {
	for i := range b.table.Columns {
		if b.table.Columns[i].Name == column {
			b.table.Columns[i].IsUnique = true
		}
	}
	b.table.Indexes = append(b.table.Indexes, Index{
		Name:     "ux_" + b.table.Name + "_" + column,
		Columns:  []string{column},
		IsUnique: true,
	})
	return b
}

func (b *tableBuilder) build() Table {
	return b.table
}

func indexName(table, column string) string {
	return fmt.Sprintf("idx_%s_%s", table, column)
}
