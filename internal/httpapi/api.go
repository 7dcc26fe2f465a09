package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/broker"
	"staffdesk.org/internal/notify"
	"staffdesk.org/internal/obs"
	"staffdesk.org/internal/rbac"
	"staffdesk.org/internal/session"
	"staffdesk.org/internal/ws"
)

// Pinger is anything that can report collaborator health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the external collaborators the guard chain depends on.
type ReadyProbe struct {
	DB      *sql.DB
	Session Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB != nil {
		if err := rp.DB.PingContext(ctx); err != nil {
			return err
		}
	}
	if rp.Session != nil {
		if err := rp.Session.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Deps carries the collaborators wired into the HTTP layer.
type Deps struct {
	Sessions      session.Store
	Resolver      rbac.Resolver
	Directory     auth.Directory
	Notifications notify.Store
	Producer      broker.Producer
	Registry      *ws.Registry
	Leaves        LeaveReviewer
	Mailer        Mailer

	ReadyProbe ReadyProbe

	SessionTTL        time.Duration
	ResetTTL          time.Duration
	DependencyTimeout time.Duration
}

// API is the HTTP layer: the guard chain plus the handlers it protects.
type API struct {
	mux     *http.ServeMux
	deps    Deps
	version string
}

// New registers all routes. Permission requirements are plain per-route
// configuration evaluated by the authorization guard; nothing is discovered
// via reflection.
func New(deps Deps, version string) *API {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 8 * time.Hour
	}
	if deps.ResetTTL <= 0 {
		deps.ResetTTL = 10 * time.Minute
	}
	if deps.DependencyTimeout <= 0 {
		deps.DependencyTimeout = 5 * time.Second
	}
	a := &API{
		mux:     http.NewServeMux(),
		deps:    deps,
		version: version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth flows
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/forgot-password", a.handleForgotPassword)
	a.mux.Handle("/v1/auth/reset-password", a.withResetAuth(http.HandlerFunc(a.handleResetPassword)))

	// notifications
	a.mux.HandleFunc("/v1/notifications/unseen", a.handleUnseen)
	a.mux.HandleFunc("/v1/notifications/seen", a.handleRecentSeen)
	a.mux.HandleFunc("/v1/notifications/", a.handleNotificationResource)

	// business action producing notification events
	a.mux.Handle("/v1/leaves", a.requirePermissions(
		rbac.Require("leaves", "create"), http.HandlerFunc(a.handleCreateLeave)))

	// live connection join
	a.mux.HandleFunc("/v1/ws", a.handleWS)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler: request id, logging, hardening
// and metrics around the authentication guard, which in turn fronts the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = RequestID(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// --- service handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "staffdesk-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.ReadyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "staffdesk-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// depContext bounds a collaborator call so an unresponsive store fails the
// request instead of stalling it forever.
func (a *API) depContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.deps.DependencyTimeout)
}
