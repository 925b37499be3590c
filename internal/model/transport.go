package model

// TransportCompany owns vehicles and employs drivers.
type TransportCompany struct {
	Model `yaml:",inline"`

	Name string `gorm:"column:name;size:50;not null" json:"name" yaml:"name" validate:"max=50"`
}

func (TransportCompany) TableName() string { return TableTransportCompanies }

// Vehicle is a truck registered to a transport company.
type Vehicle struct {
	Model `yaml:",inline"`

	Plate     *string `gorm:"column:plate;size:50" json:"plate,omitempty" yaml:"plate,omitempty" validate:"omitempty,max=50"`
	CompanyID *uint   `gorm:"column:company_id" json:"company_id,omitempty" yaml:"company_id,omitempty"`

	Company *TransportCompany `gorm:"foreignKey:CompanyID" json:"company,omitempty" yaml:"-"`
}

func (Vehicle) TableName() string { return TableVehicles }

// Driver drives a vehicle for a transport company.
type Driver struct {
	Model `yaml:",inline"`

	VehicleID *uint `gorm:"column:vehicle_id" json:"vehicle_id,omitempty" yaml:"vehicle_id,omitempty"`
	CompanyID *uint `gorm:"column:company_id" json:"company_id,omitempty" yaml:"company_id,omitempty"`

	Vehicle *Vehicle          `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty" yaml:"-"`
	Company *TransportCompany `gorm:"foreignKey:CompanyID" json:"company,omitempty" yaml:"-"`
}

func (Driver) TableName() string { return TableDrivers }
