package models

// Term is a single source phrase awaiting translation. Number orders terms
// within their category.
type Term struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CategoryID uint   `gorm:"not null;uniqueIndex:idx_term_category_identifier,priority:1;index:idx_term_category_number,priority:1" json:"category_id"`
	Number     int    `gorm:"index:idx_term_category_number,priority:2" json:"number"`
	Identifier string `gorm:"size:255;not null;uniqueIndex:idx_term_category_identifier,priority:2" json:"identifier"`
	Label      string `gorm:"size:255" json:"label"`
	TextEN     string `gorm:"column:text_en;type:text" json:"text_en"`
	TextJP     string `gorm:"column:text_jp;type:text" json:"text_jp"`
	Hidden     bool   `gorm:"not null" json:"hidden"`
	Locked     bool   `gorm:"not null" json:"locked"`
	LockReason string `gorm:"type:text" json:"lock_reason,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// Open reports whether the term accepts votes and counts towards progress.
func (t *Term) Open() bool {
	return !t.Hidden && !t.Locked
}
