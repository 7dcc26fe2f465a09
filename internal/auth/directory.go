package auth

import (
	"context"
	"time"
)

// User is the directory view of an account: just enough to authenticate a
// login and to address password updates. Full user CRUD lives elsewhere.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Directory is the user-record collaborator consulted by the login and
// password-reset flows.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
