package directory

import (
	"context"
	"sync"
	"time"

	"staffdesk.org/internal/auth"
)

// Memory is the development directory: a handful of accounts seeded at
// startup, no database required.
type Memory struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*auth.User)}
}

// Add registers an account with a pre-hashed password.
func (m *Memory) Add(id, email, passwordHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[email] = &auth.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *Memory) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return auth.ErrPrincipalNotFound
}
