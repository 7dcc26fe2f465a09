package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/rbac"
)

// requirePermissions is the authorization guard. It runs strictly after the
// authentication guard and evaluates the route's static requirement list
// against the principal's resolved permission set. All requirements must hold
// (conjunction); the first unmet one aborts the request.
func (a *API) requirePermissions(required []rbac.Requirement, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			rejectAuth(w, r, auth.ErrUnauthenticated)
			return
		}
		// No requirements: the route is open to any authenticated principal.
		if len(required) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := a.depContext(r.Context())
		resolved, err := a.deps.Resolver.ResolvePermissions(ctx, principal.ID)
		cancel()
		if err != nil {
			if errors.Is(err, auth.ErrPrincipalNotFound) {
				rejectAuth(w, r, err)
				return
			}
			rejectAuth(w, r, fmt.Errorf("%w: %v", auth.ErrDependencyFailure, err))
			return
		}

		if err := rbac.Authorize(required, resolved); err != nil {
			rejectAuth(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
