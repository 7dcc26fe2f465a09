package auth

import "strings"

// Principal is the resolved identity attached to a request after the
// authentication guard succeeds. It lives only for the request; nothing here
// is persisted.
type Principal struct {
	ID    string
	Email string
}

// PrincipalFromClaims builds a principal from decoded credential claims.
// Returns ErrMalformedPrincipal when the required claims are missing.
func PrincipalFromClaims(claims *Claims) (Principal, error) {
	if claims == nil {
		return Principal{}, ErrMalformedPrincipal
	}
	id := strings.TrimSpace(claims.Subject)
	email := strings.TrimSpace(strings.ToLower(claims.Email))
	if id == "" || email == "" {
		return Principal{}, ErrMalformedPrincipal
	}
	return Principal{ID: id, Email: email}, nil
}
