package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/keychain-connect/backend/internal/clock"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/events"
	"github.com/keychain-connect/backend/internal/keychain"
	"github.com/keychain-connect/backend/internal/models"
	"github.com/keychain-connect/backend/internal/scopes"
	"go.uber.org/zap"
)

const expireBatchSize = 100

type ApprovalService struct {
	controllers ControllerRepository
	approvals   ApprovalRepository
	audit       AuditLogger
	publisher   events.Publisher
	clock       clock.Clock
	cfg         *config.Config
	log         *zap.Logger
}

func NewApprovalService(
	controllers ControllerRepository,
	approvals ApprovalRepository,
	audit AuditLogger,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
	log *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		controllers: controllers,
		approvals:   approvals,
		audit:       audit,
		publisher:   publisher,
		clock:       clk,
		cfg:         cfg,
		log:         log,
	}
}

// Approve grants origin the given scopes. A non-positive ttl uses the
// configured default; a zero default means the approval never expires.
// Approving an origin again replaces its scopes.
func (s *ApprovalService) Approve(ctx context.Context, controllerID uuid.UUID, rawOrigin string, list []models.Scope, ttl time.Duration) (*models.Approval, error) {
	origin, err := keychain.NormalizeOrigin(rawOrigin)
	if err != nil {
		return nil, err
	}
	list = scopes.Normalize(list)
	if err := scopes.Validate(list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScopes, err)
	}

	if _, err := s.controllers.GetByID(ctx, controllerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrControllerNotFound
		}
		return nil, fmt.Errorf("get controller: %w", err)
	}

	a := &models.Approval{
		ControllerID: controllerID,
		Origin:       origin,
		Scopes:       list,
	}
	if ttl <= 0 {
		ttl = s.cfg.ApprovalDefaultTTL
	}
	if ttl > 0 {
		exp := s.clock.Now().Add(ttl)
		a.ExpiresAt = &exp
	}

	if err := s.approvals.Upsert(ctx, a); err != nil {
		return nil, fmt.Errorf("save approval: %w", err)
	}

	s.logAudit(ctx, &controllerID, "controller", "approval_granted", a, map[string]any{
		"origin": origin,
		"scopes": len(list),
	})
	s.publish(ctx, events.EventApprovalGranted, a)
	s.log.Info("origin approved",
		zap.String("controller_id", controllerID.String()),
		zap.String("origin", origin),
		zap.Int("scopes", len(list)),
	)
	return a, nil
}

func (s *ApprovalService) Revoke(ctx context.Context, controllerID uuid.UUID, rawOrigin string) (*models.Approval, error) {
	origin, err := keychain.NormalizeOrigin(rawOrigin)
	if err != nil {
		return nil, err
	}

	a, err := s.approvals.Revoke(ctx, controllerID, origin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApprovalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("revoke approval: %w", err)
	}

	s.logAudit(ctx, &controllerID, "controller", "approval_revoked", a, map[string]any{"origin": origin})
	s.publish(ctx, events.EventApprovalRevoked, a)
	return a, nil
}

func (s *ApprovalService) List(ctx context.Context, controllerID uuid.UUID) ([]models.Approval, error) {
	list, err := s.approvals.ListActive(ctx, controllerID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	if list == nil {
		list = []models.Approval{}
	}
	return list, nil
}

// ExpireStale marks every approval past its expiry as expired and
// returns how many were expired.
func (s *ApprovalService) ExpireStale(ctx context.Context) (int, error) {
	total := 0
	for {
		batch, err := s.approvals.ExpireDue(ctx, s.clock.Now(), expireBatchSize)
		if err != nil {
			return total, fmt.Errorf("expire approvals: %w", err)
		}
		for i := range batch {
			a := &batch[i]
			s.logAudit(ctx, nil, "system", "approval_expired", a, map[string]any{"origin": a.Origin})
			s.publish(ctx, events.EventApprovalExpired, a)
		}
		total += len(batch)
		if len(batch) < expireBatchSize {
			return total, nil
		}
	}
}

func (s *ApprovalService) publish(ctx context.Context, eventType string, a *models.Approval) {
	payload := map[string]any{
		"approval_id": a.ID.String(),
		"origin":      a.Origin,
		"status":      a.Status,
	}
	if a.ExpiresAt != nil {
		payload["expires_at"] = a.ExpiresAt
	}
	err := s.publisher.Publish(ctx, events.ChannelApprovals, events.Event{
		Type:         eventType,
		ControllerID: a.ControllerID.String(),
		Payload:      payload,
	})
	if err != nil {
		s.log.Warn("failed to publish approval event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *ApprovalService) logAudit(ctx context.Context, actor *uuid.UUID, actorType, action string, a *models.Approval, meta map[string]any) {
	err := s.audit.Log(ctx, models.AuditLog{
		ActorControllerID: actor,
		ActorType:         actorType,
		Action:            action,
		EntityType:        "approval",
		EntityID:          &a.ID,
		Meta:              meta,
	})
	if err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
