// Package leave persists leave applications.
package leave

import (
	"context"
	"time"
)

// Request is a leave application as accepted for storage.
type Request struct {
	RequesterID string
	ApproverID  string
	Type        string
	Reason      string
	From        time.Time
	To          time.Time
}

// Store records leave applications and returns their ids.
type Store interface {
	Submit(ctx context.Context, req Request) (string, error)
}
