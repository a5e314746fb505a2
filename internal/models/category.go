package models

// Category is a named subset of terms within a project.
// Identifier is unique only within the parent project.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ProjectID   uint   `gorm:"not null;uniqueIndex:idx_category_project_identifier,priority:1" json:"project_id"`
	Identifier  string `gorm:"size:255;not null;uniqueIndex:idx_category_project_identifier,priority:2" json:"identifier"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Position    int    `json:"position"`
	Hidden      bool   `gorm:"not null" json:"hidden"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
