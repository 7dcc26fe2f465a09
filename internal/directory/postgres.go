// Package directory resolves accounts for the login and password flows.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"staffdesk.org/internal/auth"
)

// Postgres looks accounts up in the users table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindByEmail returns the account for an email, or nil when none exists.
// Absence is not an error here; the callers decide what to reveal about it.
func (p *Postgres) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := p.db.QueryRowContext(ctx, `
		select id, email, password_hash, created_at
		from users
		where email = $1`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("directory: find by email: %w", err)
	}
	return &u, nil
}

// UpdatePassword replaces the stored hash for a user id.
func (p *Postgres) UpdatePassword(ctx context.Context, userID, hash string) error {
	res, err := p.db.ExecContext(ctx,
		`update users set password_hash = $2 where id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("directory: update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("directory: update password: %w", err)
	}
	if n == 0 {
		return auth.ErrPrincipalNotFound
	}
	return nil
}
