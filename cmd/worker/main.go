package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keychain-connect/backend/internal/clock"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/db"
	"github.com/keychain-connect/backend/internal/events"
	"github.com/keychain-connect/backend/internal/repositories"
	"github.com/keychain-connect/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	controllerRepo := repositories.NewControllerRepo(pool)
	approvalRepo := repositories.NewApprovalRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	approvalService := services.NewApprovalService(controllerRepo, approvalRepo, auditRepo, publisher, clock.Real(), cfg, log)

	log.Info("worker started", zap.Duration("expiry_sweep", cfg.ApprovalExpirySweep))

	expiryTicker := time.NewTicker(cfg.ApprovalExpirySweep)
	defer expiryTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runApprovalExpiry(ctx, approvalService, log)
	for {
		select {
		case <-expiryTicker.C:
			runApprovalExpiry(ctx, approvalService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runApprovalExpiry(ctx context.Context, approvalService *services.ApprovalService, log *zap.Logger) {
	n, err := approvalService.ExpireStale(ctx)
	if err != nil {
		log.Error("failed to expire approvals", zap.Int("expired", n), zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("expired approvals", zap.Int("count", n))
	}
}
