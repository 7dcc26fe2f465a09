package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/session"
)

func TestGuardRejectsMissingCredential(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/v1/notifications/unseen", nil, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestGuardRejectsMalformedHeader(t *testing.T) {
	env := newTestEnv(t)

	for _, header := range []string{"Token abc", "Bearer", "Bearer   "} {
		resp := env.get("/v1/notifications/unseen", nil, map[string]string{"Authorization": header})
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

func TestGuardRejectsUndecodableToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/v1/notifications/unseen", nil, bearerHeader("not-a-real-token"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGuardRejectsTokenWithoutStoredSession(t *testing.T) {
	env := newTestEnv(t)

	// Decodes fine, but nothing in the session store holds it.
	token, err := auth.GenerateToken("u1", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	resp := env.get("/v1/notifications/unseen", nil, bearerHeader(token))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGuardRejectsSupersededToken(t *testing.T) {
	env := newTestEnv(t)
	first := env.login("u1", "alice@example.com", "correct-horse")

	// A second login overwrites the stored record; the stored copy is now a
	// different credential and the first one must stop working.
	second := env.login("u1", "alice@example.com", "correct-horse")
	if first == second {
		t.Fatalf("expected distinct tokens across logins")
	}

	resp := env.get("/v1/notifications/unseen", nil, bearerHeader(first))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("superseded token: expected 401, got %d", resp.StatusCode)
	}

	resp = env.get("/v1/notifications/unseen", nil, bearerHeader(second))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("current token: expected 200, got %d", resp.StatusCode)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.login("u1", "alice@example.com", "correct-horse")

	resp := env.post("/v1/auth/logout", nil, bearerHeader(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}

	resp = env.get("/v1/notifications/unseen", nil, bearerHeader(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestResetTokenDoesNotAuthenticateAPI(t *testing.T) {
	env := newTestEnv(t)
	env.dir.add(t, "u1", "alice@example.com", "correct-horse")

	resp := env.post("/v1/auth/forgot-password", map[string]string{"email": "alice@example.com"}, nil)
	resp.Body.Close()
	resetToken, err := env.sessions.Get(context.Background(), session.ResetKey("alice@example.com"))
	if err != nil {
		t.Fatalf("reset token not stored: %v", err)
	}

	// The reset credential lives in its own namespace: it must not pass the
	// regular guard.
	resp = env.get("/v1/notifications/unseen", nil, bearerHeader(resetToken))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reset token on api route: expected 401, got %d", resp.StatusCode)
	}
}

func TestSessionTokenDoesNotAuthenticateReset(t *testing.T) {
	env := newTestEnv(t)
	token := env.login("u1", "alice@example.com", "correct-horse")

	resp := env.post("/v1/auth/reset-password", map[string]string{"newPassword": "brand-new-pw"}, bearerHeader(token))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("session token on reset route: expected 401, got %d", resp.StatusCode)
	}
}

func TestPublicRoutesSkipGuard(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/metrics"} {
		resp := env.get(path, nil, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
