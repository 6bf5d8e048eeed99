package domain

import (
	"time"

	"gorm.io/gorm"
)

// User represents a back-office operator account
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string     `gorm:"not null" json:"-"`
	FullName       *string    `json:"fullName,omitempty"`
	IsActive       bool       `gorm:"not null" json:"isActive"`
	IsAdmin        bool       `gorm:"not null" json:"isAdmin"`
	IsStaff        bool       `gorm:"not null" json:"isStaff"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// CanTriage reports whether the operator may read and triage intake records.
func (u *User) CanTriage() bool {
	return u.IsActive && (u.IsStaff || u.IsAdmin)
}

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate hook
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now().UTC()
	return nil
}
