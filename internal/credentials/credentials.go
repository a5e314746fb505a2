// Package credentials verifies and produces stored password hashes.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHashFormat is returned when a stored hash is not a bcrypt hash
// (empty, legacy or corrupt). It is never reported as a plain mismatch.
var ErrUnsupportedHashFormat = errors.New("unsupported password hash format")

// bcrypt revisions produced by the libraries that wrote our data.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Cost used for new hashes.
var Cost = bcrypt.DefaultCost

// Recognized reports whether hash uses a supported encoding.
func Recognized(hash string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}

// Verify reports whether password matches hash.
func Verify(password, hash string) (bool, error) {
	if !Recognized(hash) {
		return false, ErrUnsupportedHashFormat
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrUnsupportedHashFormat, err)
	}
}

// Hash returns a new bcrypt hash for password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
