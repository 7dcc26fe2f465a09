package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/obs"
	"staffdesk.org/internal/session"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Routes reachable without a session credential. The reset-password route is
// listed because it carries its own guard (withResetAuth); it is anything but
// open.
var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/forgot-password",
	"/v1/auth/reset-password",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth is the authentication guard: every non-public request must carry a
// bearer credential whose byte-for-byte copy is still held in the session
// store. Overwriting or deleting the stored record (logout, rotation, TTL)
// invalidates every outstanding copy at once, even though the credential
// itself would still decode.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		principal, token, err := a.authenticate(r, session.SessionKey)
		if err != nil {
			rejectAuth(w, r, err)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withResetAuth guards password-reset routes with an identical contract, but
// against the resetToken namespace. The separation is deliberate: a reset
// credential must never authenticate a normal request, nor the other way
// round, and the disjoint key namespaces enforce exactly that.
func (a *API) withResetAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, token, err := a.authenticate(r, session.ResetKey)
		if err != nil {
			rejectAuth(w, r, err)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate runs the shared guard contract: extract the bearer credential,
// decode it locally, then require an exact match against the store record in
// the given key namespace. Failure is terminal for the request; nothing here
// retries.
func (a *API) authenticate(r *http.Request, keyFor func(email string) string) (auth.Principal, string, error) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		return auth.Principal{}, "", err
	}

	claims, err := auth.ParseAndValidate(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return auth.Principal{}, "", auth.ErrMalformedPrincipal
		}
		return auth.Principal{}, "", fmt.Errorf("%w: %v", auth.ErrDependencyFailure, err)
	}
	principal, err := auth.PrincipalFromClaims(claims)
	if err != nil {
		return auth.Principal{}, "", err
	}

	ctx, cancel := a.depContext(r.Context())
	stored, err := a.deps.Sessions.Get(ctx, keyFor(principal.Email))
	cancel()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return auth.Principal{}, "", auth.ErrSessionExpired
		}
		return auth.Principal{}, "", fmt.Errorf("%w: %v", auth.ErrDependencyFailure, err)
	}
	if stored != token {
		return auth.Principal{}, "", auth.ErrSessionExpired
	}
	return principal, token, nil
}

// rejectAuth maps guard failures onto HTTP outcomes and counts them.
func rejectAuth(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		obs.AuthRejected("unauthenticated")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, auth.ErrSessionExpired):
		obs.AuthRejected("session_expired")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "token has expired")
	case errors.Is(err, auth.ErrMalformedPrincipal):
		obs.AuthRejected("malformed_principal")
		writeError(w, r, http.StatusNotFound, "user details are missing")
	case errors.Is(err, auth.ErrPrincipalNotFound):
		obs.AuthRejected("principal_not_found")
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrNoRolesAssigned), errors.Is(err, auth.ErrForbidden):
		obs.AuthRejected("forbidden")
		writeError(w, r, http.StatusForbidden, "not authorized to perform this action")
	default:
		obs.AuthRejected("dependency_failure")
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrUnauthenticated
	}
	if !strings.HasPrefix(header, bearer) {
		return "", auth.ErrUnauthenticated
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", auth.ErrUnauthenticated
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
