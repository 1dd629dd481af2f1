package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/keychain-connect/backend/internal/clock"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/controller"
	"github.com/keychain-connect/backend/internal/db"
	"github.com/keychain-connect/backend/internal/events"
	apphttp "github.com/keychain-connect/backend/internal/http"
	"github.com/keychain-connect/backend/internal/http/handlers"
	"github.com/keychain-connect/backend/internal/keychain"
	"github.com/keychain-connect/backend/internal/observability"
	"github.com/keychain-connect/backend/internal/repositories"
	"github.com/keychain-connect/backend/internal/services"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	if err := controller.Validate(controller.Versions); err != nil {
		log.Fatal("invalid controller version table", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	shutdownMetrics, err := observability.SetupMetrics(ctx, observability.Config{
		ServiceName:  "keychain-api",
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
	}, log)
	if err != nil {
		log.Fatal("failed to set up metrics", zap.Error(err))
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	controllerRepo := repositories.NewControllerRepo(pool)
	approvalRepo := repositories.NewApprovalRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Connect polling
	poller := keychain.NewPoller(log,
		keychain.WithInterval(cfg.ConnectPollInterval),
		keychain.WithTimeout(cfg.ConnectTimeout),
	)
	connector := keychain.NewConnector(poller, cfg.ConnectDedupe)

	// Services
	controllerService := services.NewControllerService(controllerRepo, auditRepo, publisher, cfg, log)
	approvalService := services.NewApprovalService(controllerRepo, approvalRepo, auditRepo, publisher, clock.Real(), cfg, log)
	connectService := services.NewConnectService(controllerRepo, approvalRepo, auditRepo, connector, otel.GetMeterProvider(), log)

	// Handlers
	controllerHandler := handlers.NewControllerHandler(controllerService, log)
	approvalHandler := handlers.NewApprovalHandler(approvalService, log)
	connectHandler := handlers.NewConnectHandler(connectService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to approval events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, controllerHandler, approvalHandler, connectHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.Duration("connect_interval", cfg.ConnectPollInterval),
		zap.Duration("connect_timeout", cfg.ConnectTimeout),
		zap.Bool("connect_dedupe", cfg.ConnectDedupe),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
