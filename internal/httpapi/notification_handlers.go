package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/notify"
)

func (a *API) handleUnseen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	ctx, cancel := a.depContext(r.Context())
	records, err := a.deps.Notifications.FindUnseen(ctx, principal.ID)
	cancel()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "notification store unavailable")
		return
	}
	if records == nil {
		records = []notify.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"count": len(records),
	})
}

func (a *API) handleRecentSeen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = v
	}

	ctx, cancel := a.depContext(r.Context())
	records, err := a.deps.Notifications.FindRecentSeen(ctx, principal.ID, limit)
	cancel()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "notification store unavailable")
		return
	}
	if records == nil {
		records = []notify.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

// handleNotificationResource routes POST /v1/notifications/{id}/seen and
// POST /v1/notifications/{id}/cleared.
func (a *API) handleNotificationResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	id, action, found := strings.Cut(path, "/")
	if !found || id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	// Mutations are scoped to the caller's own records; someone else's id
	// looks exactly like a missing one.
	var err error
	ctx, cancel := a.depContext(r.Context())
	switch action {
	case "seen":
		err = a.deps.Notifications.MarkSeen(ctx, principal.ID, id)
	case "cleared":
		err = a.deps.Notifications.MarkCleared(ctx, principal.ID, id)
	default:
		cancel()
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	cancel()

	if err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "notification not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "notification store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
