package domain

import (
	"time"
)

// QuoteRecord represents a charter quote request
type QuoteRecord struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ServiceType     string     `gorm:"not null" bson:"serviceType" json:"serviceType"`
	FirstName       string     `gorm:"not null" bson:"firstName" json:"firstName"`
	LastName        string     `gorm:"not null" bson:"lastName" json:"lastName"`
	Email           string     `gorm:"not null;index" bson:"email" json:"email"`
	Phone           string     `gorm:"not null" bson:"phone" json:"phone"`
	Company         string     `bson:"company,omitempty" json:"company,omitempty"`
	PreferredDate   string     `bson:"preferredDate,omitempty" json:"preferredDate,omitempty"` // YYYY-MM-DD
	Passengers      int        `bson:"passengers,omitempty" json:"passengers,omitempty"`
	Duration        string     `bson:"duration,omitempty" json:"duration,omitempty"`
	Origin          string     `bson:"origin,omitempty" json:"origin,omitempty"`
	Destination     string     `bson:"destination,omitempty" json:"destination,omitempty"`
	SpecialRequests string     `gorm:"type:text" bson:"specialRequests,omitempty" json:"specialRequests,omitempty"`
	Status          string     `gorm:"not null;index" bson:"status" json:"status"`
	Read            bool       `gorm:"column:is_read;not null;default:false" bson:"read" json:"read"`
	CreatedAt       time.Time  `gorm:"not null;index" bson:"createdAt" json:"createdAt"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime:false" bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// TableName specifies the table (and collection) name for QuoteRecord
func (QuoteRecord) TableName() string {
	return "quotes"
}

// RecordID returns the record identity.
func (q *QuoteRecord) RecordID() string {
	return q.ID
}

// Created returns the creation time.
func (q *QuoteRecord) Created() time.Time {
	return q.CreatedAt
}

// Stamp assigns identity and creation time. Called once by the store on create.
func (q *QuoteRecord) Stamp(id string, createdAt time.Time) {
	q.ID = id
	q.CreatedAt = createdAt
	if q.Status == "" {
		q.Status = QuoteStatusPending
	}
}

// Triage returns the back-office follow-up state.
func (q *QuoteRecord) Triage() (string, bool) {
	return q.Status, q.Read
}

// SetTriage replaces the back-office follow-up state.
func (q *QuoteRecord) SetTriage(status string, read bool) {
	q.Status = status
	q.Read = read
}

// Touch records the time of a triage mutation.
func (q *QuoteRecord) Touch(at time.Time) {
	q.UpdatedAt = &at
}

// FullName joins first and last name.
func (q *QuoteRecord) FullName() string {
	if q.LastName == "" {
		return q.FirstName
	}
	if q.FirstName == "" {
		return q.LastName
	}
	return q.FirstName + " " + q.LastName
}
