package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a notification record does not exist.
var ErrNotFound = errors.New("notify: not found")

// Event is a decoded notification event as it travels the broker: transient,
// alive only until it is persisted and dispatched.
type Event struct {
	Type    string          `json:"type"`
	UserID  string          `json:"userId"`
	Message json.RawMessage `json:"message"`
}

// Record is the durable form of an event. Clearing is a flag, not a delete;
// records are never removed by this subsystem.
type Record struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Details   json.RawMessage `json:"details"`
	UserID    string          `json:"userId"`
	Seen      bool            `json:"seen"`
	Cleared   bool            `json:"cleared"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store is the persistence collaborator for notification records. Mutations
// are owner-scoped: a record id outside the given user's records is ErrNotFound.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	MarkSeen(ctx context.Context, userID, id string) error
	MarkCleared(ctx context.Context, userID, id string) error
	FindUnseen(ctx context.Context, userID string) ([]Record, error)
	FindRecentSeen(ctx context.Context, userID string, limit int) ([]Record, error)
}

// RecordID derives the record's natural key from the raw broker payload.
// Redelivery of the same message maps to the same id, which is what makes
// the at-least-once consumer idempotent; producers embed a unique event id in
// the payload so distinct events never collide.
func RecordID(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}
