package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"staffdesk.org/internal/audit"
	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/broker"
	"staffdesk.org/internal/ids"
)

// handleCreateLeave is the representative guarded business action: it runs
// behind both guards, delegates the record to the leaves collaborator, then
// publishes the notification event for the approver. Publication is
// best-effort; the broker ack covers receipt only, never delivery.
func (a *API) handleCreateLeave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	var req LeaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.RequesterID = principal.ID
	if strings.TrimSpace(req.Type) == "" {
		writeError(w, r, http.StatusBadRequest, "leave type is required")
		return
	}
	if strings.TrimSpace(req.ApproverID) == "" {
		writeError(w, r, http.StatusBadRequest, "approverId is required")
		return
	}
	if !req.To.After(req.From) {
		writeError(w, r, http.StatusBadRequest, "leave period is invalid")
		return
	}

	ctx, cancel := a.depContext(r.Context())
	leaveID, err := a.deps.Leaves.Submit(ctx, req)
	cancel()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "leave submission failed")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"eventId":   ids.New(),
		"leaveId":   leaveID,
		"requester": principal.Email,
		"type":      req.Type,
		"from":      req.From.UTC().Format(time.RFC3339),
		"to":        req.To.UTC().Format(time.RFC3339),
	})
	if err == nil {
		msg := broker.Message{Type: "Leave Application", UserID: req.ApproverID, Message: payload}
		if value, encErr := msg.Encode(); encErr == nil {
			if pubErr := a.deps.Producer.Publish(r.Context(), value); pubErr != nil {
				_ = audit.LogEvent(r.Context(), "leave.event.publish_failed", map[string]any{
					"leave_id": leaveID,
					"error":    pubErr.Error(),
				})
			}
		}
	}

	_ = audit.LogEvent(r.Context(), "leave.submitted", map[string]any{
		"leave_id":    leaveID,
		"approver_id": req.ApproverID,
	})

	w.Header().Set("Location", "/v1/leaves/"+leaveID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": leaveID})
}
