package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"pbl5-backend/algorithms"
	"pbl5-backend/models"
)

// PathfindingHandler - route preview on the configured grid
type PathfindingHandler struct {
	Planner *algorithms.PathPlanner
}

// HandlePathfinding - POST /api/pathfinding {start:[r,c], goal:[r,c]}
func (h *PathfindingHandler) HandlePathfinding(c *fiber.Ctx) error {
	var req models.PathfindingRequest
	if err := c.BodyParser(&req); err != nil || req.Start == nil || req.Goal == nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.PathfindingResponse{
			Success: false,
			Message: "invalid request: start and goal are required",
		})
	}

	grid := h.Planner.Grid()
	if !grid.InBounds(*req.Start) || !grid.InBounds(*req.Goal) {
		return c.Status(fiber.StatusBadRequest).JSON(models.PathfindingResponse{
			Success: false,
			Message: "start or goal outside the grid",
		})
	}

	path := h.Planner.Plan(*req.Start, *req.Goal)
	if path.Empty() {
		log.Printf("❌ no route %v -> %v", *req.Start, *req.Goal)
		return c.Status(fiber.StatusOK).JSON(models.PathfindingResponse{
			Success: false,
			Message: "no route found",
		})
	}

	log.Printf("✅ route preview: %d cells", len(path))
	return c.Status(fiber.StatusOK).JSON(models.PathfindingResponse{
		Success: true,
		Path:    path,
		Steps:   path.Steps(),
	})
}

// HandleGrid - GET /api/grid
func (h *PathfindingHandler) HandleGrid(c *fiber.Ctx) error {
	return c.JSON(h.Planner.Grid().Info())
}
