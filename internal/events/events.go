package events

import (
	"context"
	"time"
)

// ChannelApprovals carries approval lifecycle events.
const ChannelApprovals = "events:approval"

// Event types
const (
	EventApprovalGranted   = "approval_granted"
	EventApprovalRevoked   = "approval_revoked"
	EventApprovalExpired   = "approval_expired"
	EventControllerRemoved = "controller_removed"
)

type Event struct {
	Type         string         `json:"type"`
	ControllerID string         `json:"controller_id"`
	Payload      map[string]any `json:"payload,omitempty"`
	At           time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
