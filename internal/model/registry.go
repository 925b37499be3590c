package model

// Table names.
const (
	TableUsers              = "users"
	TableTransportCompanies = "transport_companies"
	TableVehicles           = "vehicles"
	TableDrivers            = "drivers"
	TableProducers          = "producers"
	TablePlantations        = "plantations"
	TableBrands             = "brands"
	TableBoxTypes           = "box_types"
	TablePorts              = "ports"
	TableProcesses          = "processes"
	TableInspections        = "inspections"
)

// Registry returns one zero value of every audited entity, parents first.
func Registry() []Record {
	return []Record{
		&TransportCompany{},
		&Vehicle{},
		&Driver{},
		&Producer{},
		&Plantation{},
		&Brand{},
		&BoxType{},
		&Port{},
		&Process{},
		&Inspection{},
	}
}

// New returns a zero record for table, found through Registry.
func New(table string) (Record, bool) {
	for _, rec := range Registry() {
		if rec.TableName() == table {
			return rec, true
		}
	}
	return nil, false
}

// Uint returns a pointer to id, for filling optional references.
func Uint(id uint) *uint {
	return &id
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
