package leave

import (
	"context"
	"sync"

	"staffdesk.org/internal/ids"
)

// Memory keeps submitted applications in process, for development and tests.
type Memory struct {
	mu       sync.Mutex
	requests map[string]Request
}

func NewMemory() *Memory {
	return &Memory{requests: make(map[string]Request)}
}

func (m *Memory) Submit(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ids.New()
	m.requests[id] = req
	return id, nil
}

// Get returns a stored application by id.
func (m *Memory) Get(id string) (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	return req, ok
}
