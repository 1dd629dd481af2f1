package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/keychain-connect/backend/internal/http/dto"
	"github.com/keychain-connect/backend/internal/middleware"
	"github.com/keychain-connect/backend/internal/services"
	"go.uber.org/zap"
)

type ControllerHandler struct {
	controllerService *services.ControllerService
	log               *zap.Logger
}

func NewControllerHandler(controllerService *services.ControllerService, log *zap.Logger) *ControllerHandler {
	return &ControllerHandler{controllerService: controllerService, log: log}
}

// Register stores a controller and returns a session token for it.
// POST /controllers
func (h *ControllerHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterControllerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctrl, token, err := h.controllerService.Register(c.Context(), req.Address, req.Username, req.ClassHash)
	switch {
	case errors.Is(err, services.ErrControllerExists):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidClassHash):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		h.log.Error("failed to register controller", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{Token: token, Controller: ctrl})
}

// GetMe returns the session's controller with its version report.
// GET /controller
func (h *ControllerHandler) GetMe(c *fiber.Ctx) error {
	ctrl, err := h.controllerService.Get(c.Context(), middleware.GetControllerID(c))
	if errors.Is(err, services.ErrControllerNotFound) {
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		h.log.Error("failed to get controller", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	classHash := ""
	if ctrl.ClassHash != nil {
		classHash = *ctrl.ClassHash
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ControllerResponse{
		Controller: ctrl,
		Version:    h.controllerService.VersionInfo(classHash),
	}})
}

// SetClassHash records the deployed class hash.
// PUT /controller/class-hash
func (h *ControllerHandler) SetClassHash(c *fiber.Ctx) error {
	var req dto.SetClassHashRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctrl, err := h.controllerService.SetClassHash(c.Context(), middleware.GetControllerID(c), req.ClassHash)
	switch {
	case errors.Is(err, services.ErrInvalidClassHash):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrControllerNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case err != nil:
		h.log.Error("failed to set class hash", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ControllerResponse{
		Controller: ctrl,
		Version:    h.controllerService.VersionInfo(*ctrl.ClassHash),
	}})
}

// Remove deletes the session's controller. Pending connects for it fail
// with not_connected.
// DELETE /controller
func (h *ControllerHandler) Remove(c *fiber.Ctx) error {
	err := h.controllerService.Remove(c.Context(), middleware.GetControllerID(c))
	if errors.Is(err, services.ErrControllerNotFound) {
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		h.log.Error("failed to remove controller", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Version resolves the outside-execution version of a class hash.
// GET /controller/version?class_hash=
func (h *ControllerHandler) Version(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.controllerService.VersionInfo(c.Query("class_hash"))})
}
