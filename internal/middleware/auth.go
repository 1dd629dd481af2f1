package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/keychain-connect/backend/internal/auth"
	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/http/dto"
	"go.uber.org/zap"
)

const (
	CtxControllerID = "controller_id"
	CtxAddress      = "address"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Locals(CtxControllerID, claims.ControllerID)
		c.Locals(CtxAddress, claims.Address)

		return c.Next()
	}
}

func GetControllerID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxControllerID).(uuid.UUID)
	return id
}

func GetAddress(c *fiber.Ctx) string {
	addr, _ := c.Locals(CtxAddress).(string)
	return addr
}
