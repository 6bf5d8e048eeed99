package domain

import (
	"time"
)

// ContactRecord represents a contact form submission
type ContactRecord struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name       string     `gorm:"not null" bson:"name" json:"name"`
	Email      string     `gorm:"not null;index" bson:"email" json:"email"`
	Phone      string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Company    string     `bson:"company,omitempty" json:"company,omitempty"`
	Service    string     `gorm:"not null" bson:"service" json:"service"`
	Message    string     `gorm:"type:text;not null" bson:"message" json:"message"`
	Date       string     `bson:"date,omitempty" json:"date,omitempty"` // YYYY-MM-DD
	Passengers int        `bson:"passengers,omitempty" json:"passengers,omitempty"`
	Status     string     `gorm:"not null;index" bson:"status" json:"status"`
	Read       bool       `gorm:"column:is_read;not null;default:false" bson:"read" json:"read"`
	CreatedAt  time.Time  `gorm:"not null;index" bson:"createdAt" json:"createdAt"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime:false" bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// TableName specifies the table (and collection) name for ContactRecord
func (ContactRecord) TableName() string {
	return "contacts"
}

// RecordID returns the record identity.
func (c *ContactRecord) RecordID() string {
	return c.ID
}

// Created returns the creation time.
func (c *ContactRecord) Created() time.Time {
	return c.CreatedAt
}

// Stamp assigns identity and creation time. Called once by the store on create.
func (c *ContactRecord) Stamp(id string, createdAt time.Time) {
	c.ID = id
	c.CreatedAt = createdAt
	if c.Status == "" {
		c.Status = ContactStatusNew
	}
}

// Triage returns the back-office follow-up state.
func (c *ContactRecord) Triage() (string, bool) {
	return c.Status, c.Read
}

// SetTriage replaces the back-office follow-up state.
func (c *ContactRecord) SetTriage(status string, read bool) {
	c.Status = status
	c.Read = read
}

// Touch records the time of a triage mutation.
func (c *ContactRecord) Touch(at time.Time) {
	c.UpdatedAt = &at
}
