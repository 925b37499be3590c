package model

// Producer grows the fruit. Code is the producer's external identifier.
type Producer struct {
	Model `yaml:",inline"`

	Code string `gorm:"column:code;size:20;not null" json:"code" yaml:"code" validate:"max=20"`
}

func (Producer) TableName() string { return TableProducers }

// Plantation belongs to a producer. The reference is stored as nullable.
type Plantation struct {
	Model `yaml:",inline"`

	ProducerID *uint `gorm:"column:producer_id" json:"producer_id,omitempty" yaml:"producer_id,omitempty"`

	Producer *Producer `gorm:"foreignKey:ProducerID" json:"producer,omitempty" yaml:"-"`
}

func (Plantation) TableName() string { return TablePlantations }

// Brand is a label a producer ships under.
type Brand struct {
	Model `yaml:",inline"`

	Name       string `gorm:"column:name;size:50;not null" json:"name" yaml:"name" validate:"max=50"`
	ProducerID *uint  `gorm:"column:producer_id" json:"producer_id,omitempty" yaml:"producer_id,omitempty"`

	Producer *Producer `gorm:"foreignKey:ProducerID" json:"producer,omitempty" yaml:"-"`
}

func (Brand) TableName() string { return TableBrands }
