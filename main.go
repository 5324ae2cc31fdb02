package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"pbl5-backend/algorithms"
	"pbl5-backend/handlers"
	"pbl5-backend/models"
	"pbl5-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment")
	}

	cfg := services.LoadConfig()
	grid, err := cfg.BuildGrid()
	if err != nil {
		log.Fatalf("❌ invalid grid configuration: %v", err)
	}
	planner := algorithms.NewPathPlanner(grid)

	// Event log (optional)
	db, err := services.OpenDatabase()
	if err != nil {
		log.Printf("⚠️  event log disabled: %v", err)
	}
	logBuffer := services.NewLogBuffer(db, cfg.LogFlushSize, cfg.LogFlushInterval)
	logBuffer.Start()
	defer logBuffer.Stop()

	// Robot collaborators
	var (
		actuator services.Actuator
		sensor   services.RangeSensor
		camera   services.Camera
		detector services.Detector
	)
	switch cfg.RobotMode {
	case services.RobotModeSim:
		robot := services.NewVirtualRobot()
		robot.SetScenario(services.DefaultScenario())
		robot.Start()
		defer robot.Stop()
		actuator, sensor, camera, detector = robot, robot, robot, robot
		log.Println("🤖 robot mode: simulation")
	default:
		board := services.NewESP32Client(cfg)
		actuator, sensor, camera = board, board, board
		detector = services.NewRemoteDetector(cfg)
		log.Printf("🤖 robot mode: esp32 at %s", cfg.ESP32BaseURL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clients := handlers.NewClientManager(100)
	go clients.Start(ctx)

	loop := services.NewControlLoop(actuator, sensor, camera, detector, cfg.Loop, nil, logBuffer)
	supervisor := services.NewNavigationSupervisor(planner, loop, actuator, logBuffer, cfg.JoinTimeout)
	supervisor.SetNotifier(func(ev models.NavigationEvent) {
		clients.BroadcastMessage(models.MessageTypeNavigation, ev)
	})
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	telemetry := services.NewTelemetryStreamer(loop, cfg.TelemetryInterval, func(frame interface{}) {
		clients.Broadcast(frame)
	})
	go telemetry.Run(ctx)

	app := fiber.New()

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes := &handlers.Routes{
		Navigation:   &handlers.NavigationHandler{Supervisor: supervisor, Timeout: cfg.CommandTimeout},
		Pathfinding:  &handlers.PathfindingHandler{Planner: planner},
		Logs:         &handlers.LogsHandler{Store: services.NewLogStore(db)},
		Clients:      clients,
		RobotMode:    cfg.RobotMode,
		WriteTimeout: time.Second,
	}
	routes.Register(app)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("🛑 shutting down")
		cancel()
		select {
		case <-supervisorDone:
		case <-time.After(cfg.JoinTimeout + time.Second):
		}
		_ = app.Shutdown()
	}()

	log.Printf("🚀 server listening on %s", cfg.ListenAddr)
	log.Printf("🧭 navigation: POST /start-navigation, POST /stop-navigation")
	log.Printf("📡 telemetry: ws://localhost%s/ws", cfg.ListenAddr)
	log.Printf("💾 logs: GET /api/logs/*")
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Printf("❌ server stopped: %v", err)
	}
}
