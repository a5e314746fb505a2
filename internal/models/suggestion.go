package models

import "time"

// SuggestionStatus is the moderation state of a suggestion.
type SuggestionStatus string

const (
	StatusNew       SuggestionStatus = "new"
	StatusDenied    SuggestionStatus = "denied"
	StatusApproved  SuggestionStatus = "approved"
	StatusWithdrawn SuggestionStatus = "withdrawn"
	StatusFinal     SuggestionStatus = "final"
	StatusHidden    SuggestionStatus = "hidden"
	StatusDeleted   SuggestionStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case StatusNew, StatusDenied, StatusApproved, StatusWithdrawn, StatusFinal, StatusHidden, StatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a moderator may move a suggestion from s to next.
//
//	new      -> approved | denied | withdrawn
//	approved <-> final
//	any non-deleted -> hidden
//	any -> deleted
//
// Staying in the same state is allowed and is a no-op.
func (s SuggestionStatus) CanTransitionTo(next SuggestionStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch next {
	case StatusDeleted:
		return true
	case StatusHidden:
		return s != StatusDeleted
	}
	switch s {
	case StatusNew:
		return next == StatusApproved || next == StatusDenied || next == StatusWithdrawn
	case StatusApproved:
		return next == StatusFinal
	case StatusFinal:
		return next == StatusApproved
	}
	return false
}

// Suggestion is a proposed translation of a term.
type Suggestion struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	TermID      uint             `gorm:"not null;index:idx_suggestion_term_status,priority:1" json:"term_id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	Text        string           `gorm:"type:text;not null" json:"text"`
	Description string           `gorm:"type:text" json:"description"`
	Status      SuggestionStatus `gorm:"size:16;not null;index:idx_suggestion_term_status,priority:2" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	ChangedAt   time.Time        `gorm:"autoUpdateTime" json:"changed_at"`

	// Score is computed by ranking queries; it is never persisted.
	Score int64 `gorm:"->;-:migration" json:"score"`

	Term *Term `gorm:"foreignKey:TermID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID" json:"-"`
}
