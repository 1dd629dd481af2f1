package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/keychain-connect/backend/internal/auth"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/controller"
	"github.com/keychain-connect/backend/internal/events"
	"github.com/keychain-connect/backend/internal/models"
	"go.uber.org/zap"
)

const maxUsernameLen = 64

// VersionReport describes what the keychain knows about a class hash.
type VersionReport struct {
	ClassHash               string                             `json:"class_hash,omitempty"`
	Known                   bool                               `json:"known"`
	Version                 string                             `json:"version,omitempty"`
	OutsideExecutionVersion controller.OutsideExecutionVersion `json:"outside_execution_version"`
	Entrypoint              string                             `json:"entrypoint"`
	UpgradeAvailable        bool                               `json:"upgrade_available"`
	Latest                  string                             `json:"latest"`
}

type ControllerService struct {
	controllers ControllerRepository
	audit       AuditLogger
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewControllerService(
	controllers ControllerRepository,
	audit AuditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *ControllerService {
	return &ControllerService{
		controllers: controllers,
		audit:       audit,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

// Register stores a new controller and issues a session token for it.
func (s *ControllerService) Register(ctx context.Context, address, username, classHash string) (*models.Controller, string, error) {
	if !controller.IsFelt(address) {
		return nil, "", ErrInvalidAddress
	}
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLen {
		return nil, "", ErrInvalidUsername
	}

	c := &models.Controller{
		Address:  controller.PadHash(address),
		Username: username,
	}
	if classHash != "" {
		if !controller.IsFelt(classHash) {
			return nil, "", ErrInvalidClassHash
		}
		h := controller.PadHash(classHash)
		c.ClassHash = &h
	}

	existing, err := s.controllers.GetByAddress(ctx, c.Address)
	switch {
	case err == nil && existing != nil:
		return nil, "", ErrControllerExists
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return nil, "", fmt.Errorf("get controller by address: %w", err)
	}

	// a concurrent registration can still win between the lookup and the insert
	if err := s.controllers.Create(ctx, c); err != nil {
		if isUniqueViolation(err) {
			return nil, "", ErrControllerExists
		}
		return nil, "", fmt.Errorf("create controller: %w", err)
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, c.ID, c.Address, s.cfg.JWTExpiration)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logAudit(ctx, c.ID, "controller_registered", map[string]any{"address": c.Address, "username": c.Username})
	s.log.Info("controller registered", zap.String("controller_id", c.ID.String()), zap.String("address", c.Address))
	return c, token, nil
}

func (s *ControllerService) Get(ctx context.Context, id uuid.UUID) (*models.Controller, error) {
	c, err := s.controllers.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrControllerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get controller: %w", err)
	}
	return c, nil
}

// SetClassHash records the class hash of a controller once its account is
// deployed or upgraded.
func (s *ControllerService) SetClassHash(ctx context.Context, id uuid.UUID, classHash string) (*models.Controller, error) {
	if !controller.IsFelt(classHash) {
		return nil, ErrInvalidClassHash
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h := controller.PadHash(classHash)
	if err := s.controllers.UpdateClassHash(ctx, id, h); err != nil {
		return nil, fmt.Errorf("update class hash: %w", err)
	}
	old := c.ClassHash
	c.ClassHash = &h
	c.UpdatedAt = time.Now()

	meta := map[string]any{"class_hash": h}
	if old != nil {
		meta["previous_class_hash"] = *old
	}
	s.logAudit(ctx, id, "controller_class_hash_updated", meta)
	return c, nil
}

// Remove deletes the controller and its approvals. Connect attempts that
// are still polling for it fail as not connected on their next check.
func (s *ControllerService) Remove(ctx context.Context, id uuid.UUID) error {
	ok, err := s.controllers.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete controller: %w", err)
	}
	if !ok {
		return ErrControllerNotFound
	}

	s.logAudit(ctx, id, "controller_removed", nil)
	if err := s.publisher.Publish(ctx, events.ChannelApprovals, events.Event{
		Type:         events.EventControllerRemoved,
		ControllerID: id.String(),
	}); err != nil {
		s.log.Warn("failed to publish controller removal", zap.String("controller_id", id.String()), zap.Error(err))
	}
	return nil
}

// VersionInfo resolves which outside-execution version a class hash
// supports. Unknown or empty hashes report the default version.
func (s *ControllerService) VersionInfo(classHash string) VersionReport {
	oev := controller.ResolveOutsideExecutionVersion(classHash)
	r := VersionReport{
		OutsideExecutionVersion: oev,
		Entrypoint:              oev.Entrypoint(),
		Latest:                  controller.Latest().Version,
	}
	if classHash == "" {
		return r
	}
	r.ClassHash = controller.PadHash(classHash)
	if info, ok := controller.LookupByHash(classHash); ok {
		r.Known = true
		r.Version = info.Version
		r.UpgradeAvailable = controller.UpgradeAvailable(classHash)
	}
	return r
}

func (s *ControllerService) logAudit(ctx context.Context, id uuid.UUID, action string, meta map[string]any) {
	err := s.audit.Log(ctx, models.AuditLog{
		ActorControllerID: &id,
		ActorType:         "controller",
		Action:            action,
		EntityType:        "controller",
		EntityID:          &id,
		Meta:              meta,
	})
	if err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
