package main

import (
	"context"

	"staffdesk.org/internal/httpapi"
	"staffdesk.org/internal/leave"
	"staffdesk.org/internal/rbac"
)

// leaveReviewer adapts the leave store to the HTTP layer's reviewer contract.
type leaveReviewer struct {
	store leave.Store
}

func (r leaveReviewer) Submit(ctx context.Context, req httpapi.LeaveRequest) (string, error) {
	return r.store.Submit(ctx, leave.Request{
		RequesterID: req.RequesterID,
		ApproverID:  req.ApproverID,
		Type:        req.Type,
		Reason:      req.Reason,
		From:        req.From,
		To:          req.To,
	})
}

// devResolver grants the leave permissions to every authenticated principal.
// Development only; with Postgres configured the role tables decide.
type devResolver struct{}

func (devResolver) ResolvePermissions(context.Context, string) ([]rbac.Grant, error) {
	return []rbac.Grant{
		{Resource: "leaves", Actions: []string{"create", "read"}},
	}, nil
}
