package repository

import (
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/models"
)

// classifyWriteError turns integrity violations into CONSTRAINT_VIOLATION
// AppErrors. Everything else is a storage fault and is returned unchanged.
func classifyWriteError(err error, duplicateMessage string) error {
	switch {
	case database.IsDuplicateKey(err):
		return models.NewConstraintViolationError(duplicateMessage, err)
	case database.IsForeignKeyViolation(err):
		return models.NewConstraintViolationError("referenced record does not exist", err)
	default:
		return err
	}
}
