package domain

import "time"

// User represents an account managed by the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
