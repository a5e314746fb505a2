package models

import "time"

// Vote values. Zero is a neutral rating: it marks the suggestion as seen
// without moving its score.
const (
	VoteDown    = -1
	VoteNeutral = 0
	VoteUp      = 1
)

// ValidVoteValue reports whether v is an accepted vote value.
func ValidVoteValue(v int) bool {
	return v >= VoteDown && v <= VoteUp
}

// Vote is a user's rating of a suggestion. The (SuggestionID, UserID) pair is
// the primary key, so a user holds at most one vote per suggestion.
// Invalidated votes are kept but do not count.
type Vote struct {
	SuggestionID uint      `gorm:"primaryKey;autoIncrement:false" json:"suggestion_id"`
	UserID       uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Vote         int       `gorm:"not null" json:"vote"`
	Valid        bool      `gorm:"not null" json:"valid"`
	ChangedAt    time.Time `gorm:"autoUpdateTime" json:"changed_at"`

	Suggestion *Suggestion `gorm:"foreignKey:SuggestionID;constraint:OnDelete:CASCADE" json:"-"`
	User       *User       `gorm:"foreignKey:UserID" json:"-"`
}
