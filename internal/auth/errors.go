package auth

import "errors"

// Failure taxonomy for the guard chain and the notification pipeline. The HTTP
// layer maps these onto status codes; nothing here is retried.
var (
	// ErrUnauthenticated covers a missing or malformed bearer credential.
	ErrUnauthenticated = errors.New("auth: not authenticated")
	// ErrSessionExpired means the credential decoded but the session store no
	// longer recognises it (logout, rotation or TTL expiry).
	ErrSessionExpired = errors.New("auth: session expired")
	// ErrMalformedPrincipal means the decoded claims are incomplete.
	ErrMalformedPrincipal = errors.New("auth: malformed principal")
	// ErrPrincipalNotFound means the authenticated user no longer exists.
	ErrPrincipalNotFound = errors.New("auth: principal not found")
	// ErrNoRolesAssigned means the principal resolved to an empty permission set.
	ErrNoRolesAssigned = errors.New("auth: no roles assigned")
	// ErrForbidden means a route requirement was not met.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrDependencyFailure wraps infrastructure errors from collaborators.
	ErrDependencyFailure = errors.New("auth: dependency failure")
)
