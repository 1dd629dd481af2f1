package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/keychain-connect/backend/internal/http/dto"
	"github.com/keychain-connect/backend/internal/keychain"
	"github.com/keychain-connect/backend/internal/middleware"
	"github.com/keychain-connect/backend/internal/services"
	"go.uber.org/zap"
)

// maxApprovalTTL bounds ttl_seconds.
const maxApprovalTTL = 365 * 24 * time.Hour

type ApprovalHandler struct {
	approvalService *services.ApprovalService
	log             *zap.Logger
}

func NewApprovalHandler(approvalService *services.ApprovalService, log *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService, log: log}
}

// Approve grants an origin scopes for the session's controller.
// POST /approvals
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	ttl, err := approvalTTL(req.TTLSeconds)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	a, err := h.approvalService.Approve(c.Context(), middleware.GetControllerID(c), req.Origin, req.Scopes, ttl)
	switch {
	case errors.Is(err, keychain.ErrInvalidOrigin), errors.Is(err, services.ErrInvalidScopes):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrControllerNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case err != nil:
		h.log.Error("failed to approve origin", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: a})
}

// approvalTTL converts ttl_seconds. Zero selects the server default.
func approvalTTL(seconds int) (time.Duration, error) {
	switch {
	case seconds < 0:
		return 0, errors.New("ttl_seconds must not be negative")
	case int64(seconds) > int64(maxApprovalTTL/time.Second):
		return 0, fmt.Errorf("ttl_seconds must not exceed %d", int64(maxApprovalTTL/time.Second))
	}
	return time.Duration(seconds) * time.Second, nil
}

// List returns the active approvals of the session's controller.
// GET /approvals
func (h *ApprovalHandler) List(c *fiber.Ctx) error {
	list, err := h.approvalService.List(c.Context(), middleware.GetControllerID(c))
	if err != nil {
		h.log.Error("failed to list approvals", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: list})
}

// Revoke withdraws the approval of an origin.
// DELETE /approvals?origin=
func (h *ApprovalHandler) Revoke(c *fiber.Ctx) error {
	a, err := h.approvalService.Revoke(c.Context(), middleware.GetControllerID(c), c.Query("origin"))
	switch {
	case errors.Is(err, keychain.ErrInvalidOrigin):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrApprovalNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case err != nil:
		h.log.Error("failed to revoke approval", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: a})
}
