package leave

import (
	"context"
	"database/sql"
	"fmt"

	"staffdesk.org/internal/ids"
)

// Postgres writes leave applications to the leaves table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Submit(ctx context.Context, req Request) (string, error) {
	id := ids.New()
	_, err := p.db.ExecContext(ctx, `
		insert into leaves(id, requester_id, approver_id, type, reason, from_date, to_date)
		values ($1, $2, $3, $4, $5, $6, $7)`,
		id, req.RequesterID, req.ApproverID, req.Type, req.Reason, req.From.UTC(), req.To.UTC())
	if err != nil {
		return "", fmt.Errorf("leave: submit: %w", err)
	}
	return id, nil
}
