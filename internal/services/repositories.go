package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/keychain-connect/backend/internal/models"
)

// The repositories package satisfies these with its pgx-backed repos.

type ControllerRepository interface {
	Create(ctx context.Context, c *models.Controller) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Controller, error)
	GetByAddress(ctx context.Context, address string) (*models.Controller, error)
	UpdateClassHash(ctx context.Context, id uuid.UUID, classHash string) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type ApprovalRepository interface {
	Upsert(ctx context.Context, a *models.Approval) error
	GetActive(ctx context.Context, controllerID uuid.UUID, origin string) (*models.Approval, error)
	ListActive(ctx context.Context, controllerID uuid.UUID) ([]models.Approval, error)
	Revoke(ctx context.Context, controllerID uuid.UUID, origin string) (*models.Approval, error)
	ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.Approval, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}
