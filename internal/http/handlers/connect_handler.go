package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/keychain-connect/backend/internal/http/dto"
	"github.com/keychain-connect/backend/internal/keychain"
	"github.com/keychain-connect/backend/internal/middleware"
	"go.uber.org/zap"
)

type Connecter interface {
	Connect(ctx context.Context, controllerID uuid.UUID, origin string) (*keychain.Connection, error)
}

type ConnectHandler struct {
	connectService Connecter
	log            *zap.Logger
}

func NewConnectHandler(connectService Connecter, log *zap.Logger) *ConnectHandler {
	return &ConnectHandler{connectService: connectService, log: log}
}

// Connect long-polls until the session's controller approves the origin.
// POST /connect
func (h *ConnectHandler) Connect(c *fiber.Ctx) error {
	var req dto.ConnectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if req.Origin == "" {
		req.Origin = c.Get(fiber.HeaderOrigin)
	}

	conn, err := h.connectService.Connect(c.Context(), middleware.GetControllerID(c), req.Origin)
	if err != nil {
		return h.connectError(c, err)
	}
	return c.JSON(conn)
}

func (h *ConnectHandler) connectError(c *fiber.Ctx, err error) error {
	var ce *keychain.ConnectError
	switch {
	case errors.As(err, &ce) && errors.Is(err, keychain.ErrNotConnected):
		return c.Status(fiber.StatusNotFound).JSON(ce)
	case errors.As(err, &ce) && errors.Is(err, keychain.ErrTimeout):
		return c.Status(fiber.StatusRequestTimeout).JSON(ce)
	case errors.Is(err, keychain.ErrInvalidOrigin):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fail(c, fiber.StatusServiceUnavailable, "connect cancelled")
	default:
		h.log.Error("connect failed", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}
