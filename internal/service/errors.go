package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAuthenticationFailed indicates the credentials are incorrect. It is
	// deliberately uniform: callers cannot tell an unknown username from a
	// wrong password.
	ErrAuthenticationFailed = errors.New("invalid credentials")
)

// ValidationError indicates a malformed or missing input field, rejected
// before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AlreadyExistsError indicates a uniqueness conflict on the named field.
type AlreadyExistsError struct {
	Field string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("user with this %s already exists", e.Field)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAlreadyExists reports whether err is a uniqueness conflict and, if so,
// which field conflicted.
func IsAlreadyExists(err error) (string, bool) {
	var e *AlreadyExistsError
	if errors.As(err, &e) {
		return e.Field, true
	}
	return "", false
}
