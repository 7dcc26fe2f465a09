package httpapi

import (
	"context"
	"time"

	"staffdesk.org/internal/obs"
)

// Mailer is the templated-email collaborator used by the password-reset flow.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer is the development Mailer: it records the reset request instead
// of sending anything.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, _ string) error {
	obs.LogEvent(map[string]any{
		"level": "info",
		"msg":   "password reset requested",
		"email": email,
	})
	return nil
}

// LeaveRequest is the payload accepted by the leave-application action.
type LeaveRequest struct {
	RequesterID string    `json:"-"`
	Type        string    `json:"type"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Reason      string    `json:"reason"`
	ApproverID  string    `json:"approverId"`
}

// LeaveReviewer is the leave-record collaborator: it owns validation against
// policies and persistence of the request itself. This core only gates the
// action and publishes the resulting notification event.
type LeaveReviewer interface {
	Submit(ctx context.Context, req LeaveRequest) (string, error)
}
