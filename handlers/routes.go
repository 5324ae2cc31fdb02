package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Routes - everything the HTTP surface needs
type Routes struct {
	Navigation   *NavigationHandler
	Pathfinding  *PathfindingHandler
	Logs         *LogsHandler
	Clients      *ClientManager
	RobotMode    string
	WriteTimeout time.Duration
}

// Register - mounts all endpoints on app
func (r *Routes) Register(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("PBL5 navigation server is running.")
	})

	app.Post("/start-navigation", r.Navigation.HandleStartNavigation)
	app.Post("/stop-navigation", r.Navigation.HandleStopNavigation)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "OK",
			"clients":    r.Clients.GetClientCount(),
			"robot_mode": r.RobotMode,
			"navigating": r.Navigation.Supervisor.Running(),
			"time":       time.Now().Format(time.RFC3339),
		})
	})

	api.Get("/navigation/status", r.Navigation.HandleNavigationStatus)
	api.Post("/pathfinding", r.Pathfinding.HandlePathfinding)
	api.Get("/grid", r.Pathfinding.HandleGrid)

	logsAPI := api.Group("/logs")
	logsAPI.Get("/recent", r.Logs.HandleGetRecentLogs)
	logsAPI.Get("/range", r.Logs.HandleGetLogsByTimeRange)
	logsAPI.Get("/type", r.Logs.HandleGetLogsByEventType)
	logsAPI.Get("/stats", r.Logs.HandleGetLogStats)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(r.Clients.HandleTelemetryWebSocket(r.WriteTimeout)))
}
