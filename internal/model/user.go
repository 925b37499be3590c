package model

import "time"

// User is the identity referenced by created_by and updated_by.
type User struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id" yaml:"id"`
	Username   string    `gorm:"column:username;size:150;not null;uniqueIndex" json:"username" yaml:"username" validate:"required,max=150"`
	FullName   string    `gorm:"column:full_name;size:150;not null" json:"full_name" yaml:"full_name" validate:"max=150"`
	IsActive   bool      `gorm:"column:is_active;not null" json:"is_active" yaml:"is_active"`
	DateJoined time.Time `gorm:"column:date_joined;not null" json:"date_joined" yaml:"date_joined"`
}

func (User) TableName() string { return TableUsers }

func (u *User) PrimaryKey() uint {
	return u.ID
}
