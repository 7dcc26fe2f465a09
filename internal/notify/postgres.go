package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists notification records.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres opens a pooled connection for the notification store.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("notify: open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// DB exposes the handle for readiness probes and the migration runner.
func (p *Postgres) DB() *sql.DB { return p.db }

// Create inserts the record. Replays of the same record id are silently
// ignored, which keeps at-least-once consumption idempotent.
func (p *Postgres) Create(ctx context.Context, rec *Record) error {
	_, err := p.db.ExecContext(ctx, `
		insert into notifications(id, type, details, user_id, seen, cleared, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (id) do nothing`,
		rec.ID, rec.Type, []byte(rec.Details), rec.UserID, rec.Seen, rec.Cleared, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("notify: create record: %w", err)
	}
	return nil
}

// MarkSeen flags the user's own record; another user's id is ErrNotFound.
func (p *Postgres) MarkSeen(ctx context.Context, userID, id string) error {
	return p.setFlag(ctx, `update notifications set seen = true where id = $1 and user_id = $2`, userID, id)
}

func (p *Postgres) MarkCleared(ctx context.Context, userID, id string) error {
	return p.setFlag(ctx, `update notifications set cleared = true where id = $1 and user_id = $2`, userID, id)
}

func (p *Postgres) setFlag(ctx context.Context, query, userID, id string) error {
	res, err := p.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("notify: update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("notify: update record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) FindUnseen(ctx context.Context, userID string) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		select id, type, details, user_id, seen, cleared, created_at
		from notifications
		where user_id = $1 and seen = false and cleared = false
		order by created_at desc`, userID)
	if err != nil {
		return nil, fmt.Errorf("notify: find unseen: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (p *Postgres) FindRecentSeen(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `
		select id, type, details, user_id, seen, cleared, created_at
		from notifications
		where user_id = $1 and seen = true and cleared = false
		order by created_at desc
		limit $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: find recent seen: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var details []byte
		if err := rows.Scan(&rec.ID, &rec.Type, &details, &rec.UserID, &rec.Seen, &rec.Cleared, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan record: %w", err)
		}
		rec.Details = details
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: iterate records: %w", err)
	}
	return out, nil
}
