package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"pbl5-backend/models"
	"pbl5-backend/services"
)

// NavigationHandler - start/stop/status endpoints
type NavigationHandler struct {
	Supervisor *services.NavigationSupervisor
	Timeout    time.Duration
}

func (h *NavigationHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

// HandleStartNavigation - POST /start-navigation {start:[r,c], end:[r,c]}
func (h *NavigationHandler) HandleStartNavigation(c *fiber.Ctx) error {
	var req models.NavigationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NavigationResponse{
			Status:  models.StatusInvalidRequest,
			Message: "invalid request body: " + err.Error(),
		})
	}
	if req.Start == nil || req.End == nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NavigationResponse{
			Status:  models.StatusInvalidRequest,
			Message: "start and end are required",
		})
	}

	log.Printf("📍 navigation request: %v -> %v", *req.Start, *req.End)

	ctx, cancel := h.requestContext(c)
	defer cancel()
	path, sessionID, err := h.Supervisor.Start(ctx, *req.Start, *req.End)
	switch {
	case err == nil:
		return c.JSON(models.NavigationResponse{
			Path:      path,
			Status:    models.StatusNavigationStarted,
			SessionID: sessionID,
		})
	case errors.Is(err, services.ErrOutOfBounds):
		return c.Status(fiber.StatusBadRequest).JSON(models.NavigationResponse{
			Status:  models.StatusInvalidRequest,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrNoRoute):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"path":    models.Path{},
			"status":  models.StatusNoRoute,
			"message": err.Error(),
		})
	default:
		log.Printf("❌ start navigation: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// HandleStopNavigation - POST /stop-navigation
func (h *NavigationHandler) HandleStopNavigation(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	if err := h.Supervisor.Stop(ctx); err != nil {
		log.Printf("❌ stop navigation: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(models.NavigationResponse{Status: models.StatusStopped})
}

// HandleNavigationStatus - GET /api/navigation/status
func (h *NavigationHandler) HandleNavigationStatus(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	status, err := h.Supervisor.Status(ctx)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(status)
}
