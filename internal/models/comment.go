package models

import "time"

// Comment is a note left on a term. Deleted comments are kept for audit.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TermID    uint      `gorm:"not null;index" json:"term_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `gorm:"not null" json:"deleted"`

	Term *Term `gorm:"foreignKey:TermID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID" json:"-"`
}
