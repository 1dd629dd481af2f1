package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/keychain-connect/backend/internal/http/dto"
	"github.com/keychain-connect/backend/internal/middleware"
)

func fail(c *fiber.Ctx, status int, msg string) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: reqID})
}
