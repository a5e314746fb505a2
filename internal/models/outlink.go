package models

// OutlinkType distinguishes how an outlink is rendered.
type OutlinkType string

const (
	OutlinkLink  OutlinkType = "link"
	OutlinkImage OutlinkType = "image"
	OutlinkIcon  OutlinkType = "icon"
)

// Valid reports whether t is a known outlink type.
func (t OutlinkType) Valid() bool {
	switch t {
	case OutlinkLink, OutlinkImage, OutlinkIcon:
		return true
	}
	return false
}

// Outlink is an external reference attached to a category. URL is a template
// filled in per term.
type Outlink struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	CategoryID uint        `gorm:"not null;index" json:"category_id"`
	Label      string      `gorm:"size:255" json:"label"`
	URL        string      `gorm:"size:255;not null" json:"url"`
	Type       OutlinkType `gorm:"size:16;not null" json:"type"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}
