package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"staffdesk.org/internal/auth"
)

// Postgres resolves a principal's grants from the role tables. Roles are
// flattened: when two roles grant actions on the same resource, the resolver
// merges them into one grant with the union of actions.
type Postgres struct {
	db *sql.DB
}

var _ Resolver = (*Postgres)(nil)

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres opens a pooled connection for the resolver.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("rbac: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// DB exposes the handle for readiness probes and the migration runner.
func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) ResolvePermissions(ctx context.Context, principalID string) ([]Grant, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`select exists(select 1 from users where id = $1)`, principalID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup principal: %v", auth.ErrDependencyFailure, err)
	}
	if !exists {
		return nil, auth.ErrPrincipalNotFound
	}

	rows, err := p.db.QueryContext(ctx, `
		select rp.resource, rp.action
		from user_roles ur
		join role_permissions rp on rp.role_id = ur.role_id
		where ur.user_id = $1
		order by rp.resource, rp.action`, principalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: resolve permissions: %v", auth.ErrDependencyFailure, err)
	}
	defer rows.Close()

	index := make(map[string]int)
	var grants []Grant
	for rows.Next() {
		var resource, action string
		if err := rows.Scan(&resource, &action); err != nil {
			return nil, fmt.Errorf("%w: scan permission: %v", auth.ErrDependencyFailure, err)
		}
		i, ok := index[resource]
		if !ok {
			index[resource] = len(grants)
			grants = append(grants, Grant{Resource: resource})
			i = index[resource]
		}
		if !containsAction(grants[i].Actions, action) {
			grants[i].Actions = append(grants[i].Actions, action)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate permissions: %v", auth.ErrDependencyFailure, err)
	}
	return grants, nil
}

func containsAction(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
