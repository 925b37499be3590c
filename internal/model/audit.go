// Package model defines the records of the produce supply chain and the
// audit envelope every one of them carries.
package model

import "time"

// AuditEnvelope holds the provenance fields shared by every tracked record.
//
// Created and CreatedByID are written once. Updated and UpdatedByID are
// refreshed on every write. IsActive and IsEnable are soft markers only;
// nothing filters or cascades on them unless a caller asks for it.
type AuditEnvelope struct {
	Created     time.Time `gorm:"column:created;not null" json:"created" yaml:"created"`
	Updated     time.Time `gorm:"column:updated;not null" json:"updated" yaml:"updated"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active" yaml:"is_active"`
	IsEnable    bool      `gorm:"column:is_enable;not null" json:"is_enable" yaml:"is_enable"`
	CreatedByID uint      `gorm:"column:created_by_id;not null" json:"created_by_id" yaml:"created_by_id" validate:"required"`
	UpdatedByID uint      `gorm:"column:updated_by_id;not null" json:"updated_by_id" yaml:"updated_by_id" validate:"required"`
}

// Envelope gives generic code access to the embedded envelope.
func (e *AuditEnvelope) Envelope() *AuditEnvelope {
	return e
}

// MarkCreated stamps a record that is about to be inserted.
func (e *AuditEnvelope) MarkCreated(actor uint, now time.Time) {
	e.Created = now
	e.Updated = now
	e.IsActive = true
	e.IsEnable = true
	e.CreatedByID = actor
	e.UpdatedByID = actor
}

// MarkUpdated stamps a record that is about to be written again.
// Updated never moves backwards, even if the clock does.
func (e *AuditEnvelope) MarkUpdated(actor uint, now time.Time) {
	if now.After(e.Updated) {
		e.Updated = now
	}
	e.UpdatedByID = actor
}

// Model is embedded by every entity, the same way gorm.Model is.
type Model struct {
	ID uint `gorm:"column:id;primaryKey" json:"id" yaml:"id"`

	AuditEnvelope `yaml:",inline"`
}

// PrimaryKey returns the row id, zero for unsaved records.
func (m *Model) PrimaryKey() uint {
	return m.ID
}

// SetPrimaryKey addresses an existing row, e.g. before a delete.
func (m *Model) SetPrimaryKey(id uint) {
	m.ID = id
}

// Keyed is anything addressable by table and id.
type Keyed interface {
	TableName() string
	PrimaryKey() uint
}

// Record is an entity that carries the audit envelope.
type Record interface {
	Keyed
	Envelope() *AuditEnvelope
}
