package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/obs"
)

const joinDeadline = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isLocalOrigin(origin)
	},
}

// wsConn adapts a websocket connection to the registry's Conn contract.
// Writes are serialized: dispatcher pushes and roster broadcasts may arrive
// from different goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

type joinMessage struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

// handleWS upgrades a guarded request to a live connection. The client sends
// a join signal naming its user id; the binding takes the principal already
// on the request, so a client cannot join as someone else. The connection is
// unbound by handle when the read loop ends.
func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	conn := &wsConn{conn: raw}

	_ = raw.SetReadDeadline(time.Now().Add(joinDeadline))
	_, data, err := raw.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return
	}
	var join joinMessage
	if err := json.Unmarshal(data, &join); err != nil || join.Event != "join" || join.UserID != principal.ID {
		_ = conn.Close()
		return
	}
	_ = raw.SetReadDeadline(time.Time{})

	bound := a.deps.Registry.Bind(principal.ID, conn)
	if !bound {
		// Duplicate join: the first connection keeps the binding. This one
		// stays open but receives nothing.
		obs.LogEvent(map[string]any{
			"level":   "info",
			"msg":     "duplicate join ignored",
			"user_id": principal.ID,
		})
	}

	// Read loop: the client never sends anything else we act on, but reading
	// is what detects the disconnect.
	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			break
		}
	}

	if bound {
		a.deps.Registry.Unbind(conn)
	}
	_ = conn.Close()
}
