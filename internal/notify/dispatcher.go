package notify

import (
	"encoding/json"

	"staffdesk.org/internal/obs"
	"staffdesk.org/internal/ws"
)

// Dispatcher decides between live push and durable-only delivery. A bound
// connection gets the raw event payload point-to-point; without one the
// persisted record stands as the sole trace of the event until the user pulls
// their unseen notifications.
type Dispatcher struct {
	registry *ws.Registry
}

// NewDispatcher builds a dispatcher over the connection registry.
func NewDispatcher(registry *ws.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch pushes the event to the target user's live connection if one is
// bound, reporting whether a push was attempted. Pushes are fire-and-forget:
// a send failure is logged and counted, never escalated; durability is
// already guaranteed by the persisted record.
func (d *Dispatcher) Dispatch(ev Event) bool {
	conn, ok := d.registry.Lookup(ev.UserID)
	if !ok {
		obs.LivePush("offline")
		return false
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		obs.LivePush("failed")
		return false
	}
	if err := conn.Send(payload); err != nil {
		// Stale handle not yet unbound; the durable record covers the loss.
		obs.LivePush("failed")
		obs.LogEvent(map[string]any{
			"level":   "warn",
			"msg":     "live push failed",
			"user_id": ev.UserID,
			"type":    ev.Type,
			"error":   err.Error(),
		})
		return true
	}
	obs.LivePush("delivered")
	return true
}
