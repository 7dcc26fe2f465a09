package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"staffdesk.org/internal/audit"
	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := a.depContext(r.Context())
	user, err := a.deps.Directory.FindByEmail(ctx, email)
	cancel()
	if err != nil || user == nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID, email, a.deps.SessionTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	// Overwrites any previous record: one active session per user.
	ctx, cancel = a.depContext(r.Context())
	err = a.deps.Sessions.Set(ctx, session.SessionKey(email), token, a.deps.SessionTTL)
	cancel()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session store unavailable")
		return
	}

	expiresAt := time.Now().UTC().Add(a.deps.SessionTTL)
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":    user.ID,
		"email":      email,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	ctx, cancel := a.depContext(r.Context())
	err := a.deps.Sessions.Delete(ctx, session.SessionKey(principal.Email))
	cancel()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session store unavailable")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{"email": principal.Email})
	w.WriteHeader(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}

	// Always answer 202: the response must not reveal whether the account
	// exists.
	ctx, cancel := a.depContext(r.Context())
	user, err := a.deps.Directory.FindByEmail(ctx, email)
	cancel()
	if err != nil || user == nil {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	token, err := auth.GenerateToken(user.ID, email, a.deps.ResetTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	ctx, cancel = a.depContext(r.Context())
	err = a.deps.Sessions.Set(ctx, session.ResetKey(email), token, a.deps.ResetTTL)
	cancel()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session store unavailable")
		return
	}

	if a.deps.Mailer != nil {
		if err := a.deps.Mailer.SendPasswordReset(r.Context(), email, token); err != nil {
			writeError(w, r, http.StatusInternalServerError, "reset email failed")
			return
		}
	}

	_ = audit.LogEvent(r.Context(), "auth.reset.requested", map[string]any{"email": email})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// handleResetPassword runs behind the reset authentication guard; the
// principal in context was validated against the resetToken namespace.
func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		rejectAuth(w, r, auth.ErrUnauthenticated)
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "password hashing failed")
		return
	}

	ctx, cancel := a.depContext(r.Context())
	err = a.deps.Directory.UpdatePassword(ctx, principal.ID, hash)
	cancel()
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			rejectAuth(w, r, err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "password update failed")
		return
	}

	// Burn the reset token and drop any live session so the old credential
	// cannot outlive the password change.
	ctx, cancel = a.depContext(r.Context())
	_ = a.deps.Sessions.Delete(ctx, session.ResetKey(principal.Email))
	_ = a.deps.Sessions.Delete(ctx, session.SessionKey(principal.Email))
	cancel()

	_ = audit.LogEvent(r.Context(), "auth.reset.completed", map[string]any{"email": principal.Email})
	w.WriteHeader(http.StatusNoContent)
}
