package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("repository: record not found")

// DuplicateKeyError indicates an insert or update violated a uniqueness
// constraint. Field names the colliding column.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("repository: duplicate %s", e.Field)
}

// IsDuplicateKey reports whether err is a uniqueness violation and, if so,
// which field collided.
func IsDuplicateKey(err error) (string, bool) {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}
