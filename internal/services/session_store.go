package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/keychain-connect/backend/internal/keychain"
	"github.com/keychain-connect/backend/internal/models"
)

var _ keychain.Store = (*SessionStore)(nil)

// SessionStore is the keychain.Store of one session: the controller the
// session token was issued for, read fresh from Postgres on every check.
type SessionStore struct {
	controllers  ControllerRepository
	approvals    ApprovalRepository
	controllerID uuid.UUID
}

func NewSessionStore(controllers ControllerRepository, approvals ApprovalRepository, controllerID uuid.UUID) *SessionStore {
	return &SessionStore{controllers: controllers, approvals: approvals, controllerID: controllerID}
}

func (s *SessionStore) Current(ctx context.Context) (keychain.Controller, error) {
	c, err := s.controllers.GetByID(ctx, s.controllerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sessionController{controller: c, approvals: s.approvals}, nil
}

type sessionController struct {
	controller *models.Controller
	approvals  ApprovalRepository
}

func (c *sessionController) Address() string { return c.controller.Address }

func (c *sessionController) Approval(ctx context.Context, origin string) (*models.Approval, error) {
	a, err := c.approvals.GetActive(ctx, c.controller.ID, origin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}
