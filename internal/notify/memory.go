package notify

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store for tests and storage-less development.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return nil
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *Memory) MarkSeen(_ context.Context, userID, id string) error {
	return m.setFlag(userID, id, func(rec *Record) { rec.Seen = true })
}

func (m *Memory) MarkCleared(_ context.Context, userID, id string) error {
	return m.setFlag(userID, id, func(rec *Record) { rec.Cleared = true })
}

func (m *Memory) setFlag(userID, id string, mutate func(*Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.UserID != userID {
		return ErrNotFound
	}
	mutate(&rec)
	m.records[id] = rec
	return nil
}

func (m *Memory) FindUnseen(_ context.Context, userID string) ([]Record, error) {
	return m.filter(func(rec Record) bool {
		return rec.UserID == userID && !rec.Seen && !rec.Cleared
	}, 0), nil
}

func (m *Memory) FindRecentSeen(_ context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	return m.filter(func(rec Record) bool {
		return rec.UserID == userID && rec.Seen && !rec.Cleared
	}, limit), nil
}

func (m *Memory) filter(keep func(Record) bool, limit int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len reports the number of stored records. Only intended for test use.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
