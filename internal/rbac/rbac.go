package rbac

import (
	"context"

	"staffdesk.org/internal/auth"
)

// Grant is one entry of a principal's resolved permission set: a resource and
// the actions allowed on it. Duplicate actions are tolerated; evaluation
// treats the slice as a set.
type Grant struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// Requirement is static route metadata: the resource and the actions a caller
// must hold to pass. Attached at route registration, never mutated at runtime.
type Requirement struct {
	Resource string
	Actions  []string
}

// Resolver is the collaborator that flattens a principal's roles into grants.
// It returns auth.ErrPrincipalNotFound when the principal no longer exists.
type Resolver interface {
	ResolvePermissions(ctx context.Context, principalID string) ([]Grant, error)
}

// Authorize evaluates a route's requirements against a resolved permission
// set. An empty requirement list passes: such a route is open to any
// authenticated principal. Otherwise every requirement must be satisfied
// (conjunction) and evaluation stops at the first unmet one.
func Authorize(required []Requirement, resolved []Grant) error {
	if len(required) == 0 {
		return nil
	}
	if len(resolved) == 0 {
		return auth.ErrNoRolesAssigned
	}
	for _, req := range required {
		grant, ok := findGrant(resolved, req.Resource)
		if !ok {
			return auth.ErrForbidden
		}
		allowed := make(map[string]struct{}, len(grant.Actions))
		for _, a := range grant.Actions {
			allowed[a] = struct{}{}
		}
		for _, action := range req.Actions {
			if _, ok := allowed[action]; !ok {
				return auth.ErrForbidden
			}
		}
	}
	return nil
}

func findGrant(grants []Grant, resource string) (Grant, bool) {
	for _, g := range grants {
		if g.Resource == resource {
			return g, true
		}
	}
	return Grant{}, false
}

// Require is shorthand for building a single-resource requirement list.
func Require(resource string, actions ...string) []Requirement {
	return []Requirement{{Resource: resource, Actions: actions}}
}
