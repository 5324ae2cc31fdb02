package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"pbl5-backend/services"
)

const defaultLogLimit = 100

// LogsHandler - navigation event log queries
type LogsHandler struct {
	Store *services.LogStore
}

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit <= 0 {
		return defaultLogLimit
	}
	return limit
}

func storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNoDatabase) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "event log disabled",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to fetch logs",
	})
}

// HandleGetRecentLogs - GET /api/logs/recent?session_id=&limit=
func (h *LogsHandler) HandleGetRecentLogs(c *fiber.Ctx) error {
	logs, err := h.Store.Recent(c.Query("session_id"), queryLimit(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// HandleGetLogsByTimeRange - GET /api/logs/range?start=&end= (RFC3339)
func (h *LogsHandler) HandleGetLogsByTimeRange(c *fiber.Ctx) error {
	start := time.Now().Add(-24 * time.Hour)
	if s := c.Query("start"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid start time format (use RFC3339)",
			})
		}
		start = parsed
	}

	end := time.Now()
	if s := c.Query("end"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid end time format (use RFC3339)",
			})
		}
		end = parsed
	}

	logs, err := h.Store.ByTimeRange(c.Query("session_id"), start, end, queryLimit(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
		"logs": logs,
	})
}

// HandleGetLogsByEventType - GET /api/logs/type?event_type=
func (h *LogsHandler) HandleGetLogsByEventType(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	if eventType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "event_type parameter is required",
		})
	}
	logs, err := h.Store.ByEventType(c.Query("session_id"), eventType, queryLimit(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(logs),
		"event_type": eventType,
		"logs":       logs,
	})
}

// HandleGetLogStats - GET /api/logs/stats?hours=
func (h *LogsHandler) HandleGetLogStats(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	stats, err := h.Store.Stats(c.Query("session_id"), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"hours":   hours,
		"stats":   stats,
	})
}
