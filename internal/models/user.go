// Package models contains data structures for the glossary's domain models.
package models

import "time"

// User is a registered translator. Password holds a bcrypt hash, never plaintext.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Password     string     `gorm:"size:255" json:"-"`
	Email        string     `gorm:"size:255" json:"-"`
	MinipicURL   string     `gorm:"size:255" json:"minipic_url"`
	Profile      string     `gorm:"type:text" json:"profile"`
	Admin        bool       `gorm:"not null" json:"admin"`
	Active       bool       `gorm:"not null" json:"active"`
	RegisteredAt time.Time  `gorm:"autoCreateTime" json:"registered_at"`
	SeenAt       *time.Time `json:"seen_at,omitempty"`
}
