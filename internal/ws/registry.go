package ws

import (
	"encoding/json"
	"sort"
	"sync"

	"staffdesk.org/internal/obs"
)

// Conn is a live, push-capable connection handle. The registry compares
// handles by identity: two connections for the same user are distinct conns.
type Conn interface {
	Send(payload []byte) error
	Close() error
}

// Registry tracks which users currently hold a live connection, scoped to
// this process. All access goes through Bind, Unbind and Lookup; the mutex
// makes each operation atomic.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Bind adds a binding for userID unless one already exists. A duplicate join
// is a no-op reporting false; the first connection wins. A successful bind
// broadcasts the updated roster.
func (r *Registry) Bind(userID string, conn Conn) bool {
	if userID == "" || conn == nil {
		return false
	}
	r.mu.Lock()
	if _, ok := r.conns[userID]; ok {
		r.mu.Unlock()
		return false
	}
	r.conns[userID] = conn
	size := len(r.conns)
	r.mu.Unlock()

	obs.SetLiveConnections(size)
	r.broadcastRoster()
	return true
}

// Unbind removes the binding holding exactly this conn. Matching by handle,
// not by user id, means a stale disconnect arriving after the same user has
// reconnected cannot erase the newer binding. An unknown handle is a silent
// no-op; only an actual removal broadcasts the roster.
func (r *Registry) Unbind(conn Conn) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	removed := false
	for userID, bound := range r.conns {
		if bound == conn {
			delete(r.conns, userID)
			removed = true
			break
		}
	}
	size := len(r.conns)
	r.mu.Unlock()

	if removed {
		obs.SetLiveConnections(size)
		r.broadcastRoster()
	}
}

// Lookup returns the conn bound to userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Roster returns the sorted user ids currently bound.
func (r *Registry) Roster() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// broadcastRoster pushes the current roster to every live connection. Feeds
// the presence UI only; delivery correctness never depends on it, so send
// failures are dropped.
func (r *Registry) broadcastRoster() {
	payload, err := json.Marshal(map[string]any{
		"event": "users",
		"users": r.Roster(),
	})
	if err != nil {
		return
	}

	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		_ = c.Send(payload)
	}
}
