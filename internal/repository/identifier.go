// Package repository implements the data access layer for the glossary.
package repository

import (
	"context"
	"errors"
	"reflect"

	"github.com/encukou/prekapavac/internal/models"

	"gorm.io/gorm"
)

// Scope restricts an identifier lookup to the children of one parent row.
// The zero Scope searches the whole table.
type Scope struct {
	Column string
	ID     uint
}

// Global is the scope for globally unique identifiers.
var Global = Scope{}

// Within scopes a lookup to rows whose column equals id.
func Within(column string, id uint) Scope {
	return Scope{Column: column, ID: id}
}

// FindByIdentifier loads the T whose identifier is unique inside scope.
// A miss is reported as a NOT_FOUND AppError; storage errors are returned as is.
func FindByIdentifier[T any](ctx context.Context, db *gorm.DB, scope Scope, identifier string) (*T, error) {
	var out T
	q := db.WithContext(ctx).Where("identifier = ?", identifier)
	if scope.Column != "" {
		q = q.Where(scope.Column+" = ?", scope.ID)
	}
	if err := q.Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(resourceName[T](), identifier)
		}
		return nil, err
	}
	return &out, nil
}

// findByID loads a row by primary key, reporting a miss as NOT_FOUND.
func findByID[T any](ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(resourceName[T](), id)
		}
		return nil, err
	}
	return &out, nil
}

func resourceName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}
