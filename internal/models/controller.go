package models

import (
	"time"

	"github.com/google/uuid"
)

type Controller struct {
	ID        uuid.UUID `json:"id"`
	Address   string    `json:"address"`    // 0x-prefixed, padded to 64 hex digits
	Username  string    `json:"username"`
	ClassHash *string   `json:"class_hash,omitempty"` // nil until the account is deployed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scope is a permission descriptor granted to an origin: the origin may
// call Method on the Target contract on behalf of the controller.
type Scope struct {
	Target      string `json:"target"`
	Method      string `json:"method"`
	Description string `json:"description,omitempty"`
}
