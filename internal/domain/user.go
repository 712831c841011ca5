package domain

import "time"

// User represents an admin credential. Created once via signup, read on
// every login, never updated or deleted by any exposed operation.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
