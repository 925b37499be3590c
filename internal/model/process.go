package model

// Process is one reception of produce: who grew it and who hauled it.
// All four references are optional at the storage level.
type Process struct {
	Model `yaml:",inline"`

	ProducerID         *uint `gorm:"column:producer_id" json:"producer_id,omitempty" yaml:"producer_id,omitempty"`
	VehicleID          *uint `gorm:"column:vehicle_id" json:"vehicle_id,omitempty" yaml:"vehicle_id,omitempty"`
	DriverID           *uint `gorm:"column:driver_id" json:"driver_id,omitempty" yaml:"driver_id,omitempty"`
	TransportCompanyID *uint `gorm:"column:transport_company_id" json:"transport_company_id,omitempty" yaml:"transport_company_id,omitempty"`

	Producer         *Producer         `gorm:"foreignKey:ProducerID" json:"producer,omitempty" yaml:"-"`
	Vehicle          *Vehicle          `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty" yaml:"-"`
	Driver           *Driver           `gorm:"foreignKey:DriverID" json:"driver,omitempty" yaml:"-"`
	TransportCompany *TransportCompany `gorm:"foreignKey:TransportCompanyID" json:"transport_company,omitempty" yaml:"-"`
}

func (Process) TableName() string { return TableProcesses }

// Inspection is a quality check made on a process.
type Inspection struct {
	Model `yaml:",inline"`

	ProcessID *uint `gorm:"column:process_id" json:"process_id,omitempty" yaml:"process_id,omitempty"`

	Process *Process `gorm:"foreignKey:ProcessID" json:"process,omitempty" yaml:"-"`
}

func (Inspection) TableName() string { return TableInspections }
