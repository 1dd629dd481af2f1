package models

import (
	"time"

	"github.com/google/uuid"
)

// Approval statuses
const (
	ApprovalStatusActive  = "active"
	ApprovalStatusRevoked = "revoked"
	ApprovalStatusExpired = "expired"
)

type Approval struct {
	ID           uuid.UUID  `json:"id"`
	ControllerID uuid.UUID  `json:"controller_id"`
	Origin       string     `json:"origin"`
	Scopes       []Scope    `json:"scopes"`
	Status       string     `json:"status"`
	ApprovedAt   time.Time  `json:"approved_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// IsActiveAt reports whether the approval can still be handed to the
// origin at time t.
func (a *Approval) IsActiveAt(t time.Time) bool {
	if a.Status != ApprovalStatusActive {
		return false
	}
	if a.ExpiresAt != nil && !t.Before(*a.ExpiresAt) {
		return false
	}
	return true
}
