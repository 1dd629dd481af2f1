package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/keychain-connect/backend/internal/keychain"
	"github.com/keychain-connect/backend/internal/models"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type ConnectService struct {
	controllers ControllerRepository
	approvals   ApprovalRepository
	audit       AuditLogger
	connector   *keychain.Connector
	metrics     connectMetrics
	log         *zap.Logger
}

func NewConnectService(
	controllers ControllerRepository,
	approvals ApprovalRepository,
	audit AuditLogger,
	connector *keychain.Connector,
	mp metric.MeterProvider,
	log *zap.Logger,
) *ConnectService {
	return &ConnectService{
		controllers: controllers,
		approvals:   approvals,
		audit:       audit,
		connector:   connector,
		metrics:     newConnectMetrics(mp),
		log:         log,
	}
}

// Connect waits until the session's controller has approved origin. It
// fails with keychain.ErrNotConnected once the controller is gone and
// with keychain.ErrTimeout when no approval arrives in time.
func (s *ConnectService) Connect(ctx context.Context, controllerID uuid.UUID, rawOrigin string) (conn *keychain.Connection, err error) {
	started := time.Now()
	defer func() { s.metrics.record(ctx, started, err) }()

	origin, err := keychain.NormalizeOrigin(rawOrigin)
	if err != nil {
		return nil, err
	}

	store := NewSessionStore(s.controllers, s.approvals, controllerID)
	conn, err = s.connector.Connect(ctx, controllerID.String(), store, origin)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Info("connect failed",
				zap.String("controller_id", controllerID.String()),
				zap.String("origin", origin),
				zap.Error(err),
			)
		}
		return nil, err
	}

	if err := s.audit.Log(ctx, models.AuditLog{
		ActorControllerID: &controllerID,
		ActorType:         "controller",
		Action:            "origin_connected",
		EntityType:        "controller",
		EntityID:          &controllerID,
		Meta:              map[string]any{"origin": origin},
	}); err != nil {
		s.log.Warn("audit log failed", zap.String("action", "origin_connected"), zap.Error(err))
	}
	return conn, nil
}
