package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/http/handlers"
	"github.com/keychain-connect/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb redis.Cmdable,
	controllerHandler *handlers.ControllerHandler,
	approvalHandler *handlers.ApprovalHandler,
	connectHandler *handlers.ConnectHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Public
	api.Post("/controllers", controllerHandler.Register)
	api.Get("/controller/version", controllerHandler.Version)

	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Controller
	protected.Get("/controller", controllerHandler.GetMe)
	protected.Put("/controller/class-hash", controllerHandler.SetClassHash)
	protected.Delete("/controller", controllerHandler.Remove)

	// Connect (long poll)
	protected.Post("/connect", connectHandler.Connect)

	// Approvals
	protected.Post("/approvals", approvalHandler.Approve)
	protected.Get("/approvals", approvalHandler.List)
	protected.Delete("/approvals", approvalHandler.Revoke)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
