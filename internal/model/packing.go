package model

// BoxType is a packing format.
type BoxType struct {
	Model `yaml:",inline"`

	Name string `gorm:"column:name;size:50;not null" json:"name" yaml:"name" validate:"max=50"`
}

func (BoxType) TableName() string { return TableBoxTypes }

// Port is a shipping port.
type Port struct {
	Model `yaml:",inline"`

	Name string `gorm:"column:name;size:50;not null" json:"name" yaml:"name" validate:"max=50"`
}

func (Port) TableName() string { return TablePorts }
