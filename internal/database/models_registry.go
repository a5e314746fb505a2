package database

import "github.com/encukou/prekapavac/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Category{},
		&models.Term{},
		&models.Suggestion{},
		&models.Vote{},
		&models.Comment{},
		&models.Outlink{},
	}
}
