package dto

import "github.com/keychain-connect/backend/internal/models"

type RegisterControllerRequest struct {
	Address   string `json:"address"`
	Username  string `json:"username"`
	ClassHash string `json:"class_hash,omitempty"`
}

type SetClassHashRequest struct {
	ClassHash string `json:"class_hash"`
}

// ConnectRequest falls back to the Origin header when Origin is empty.
type ConnectRequest struct {
	Origin string `json:"origin"`
}

type ApproveRequest struct {
	Origin string         `json:"origin"`
	Scopes []models.Scope `json:"scopes"`
	// TTLSeconds of 0 uses the server default.
	TTLSeconds int `json:"ttl_seconds,omitempty"`
}
