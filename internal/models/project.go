package models

// Project is the top-level grouping of categories, e.g. a game being translated.
// Identifier is globally unique and URL safe.
type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Identifier  string `gorm:"size:255;uniqueIndex;not null" json:"identifier"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Position    int    `gorm:"index" json:"position"`
}
