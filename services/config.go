package services

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"pbl5-backend/algorithms"
)

// Robot modes
const (
	RobotModeESP32 = "esp32" // real ESP32-CAM board over HTTP
	RobotModeSim   = "sim"   // in-process VirtualRobot
)

// Physical constants of the chassis
const (
	CellSizeCM         = 8
	MaxSpeedCMPerSec   = 100
	DefaultTurnTime    = 1 * time.Second
	DefaultBaseMove    = time.Duration(CellSizeCM) * time.Second / MaxSpeedCMPerSec
	DefaultTelemetryHz = 10
)

// Config - runtime configuration read from the environment
type Config struct {
	ListenAddr   string
	AllowOrigins string
	RobotMode    string

	ESP32BaseURL   string
	DetectorURL    string
	RequestTimeout time.Duration // camera / ultrasonic / detector
	CommandTimeout time.Duration // actuator

	GridRows      int
	GridCols      int
	GridObstacles string

	Loop LoopTiming

	JoinTimeout       time.Duration
	TelemetryInterval time.Duration

	LogFlushSize     int
	LogFlushInterval time.Duration
}

// LoopTiming - control loop cadence and physical durations
type LoopTiming struct {
	TickInterval time.Duration // sleep between ticks
	FrameBackoff time.Duration // after a missing frame
	ErrorBackoff time.Duration // after an unexpected tick error
	TurnDuration time.Duration // one 90° turn
	BaseMoveTime time.Duration // one cell at DefaultSpeed
}

// DefaultLoopTiming - timings of the test track robot
func DefaultLoopTiming() LoopTiming {
	return LoopTiming{
		TickInterval: 500 * time.Millisecond,
		FrameBackoff: 2 * time.Second,
		ErrorBackoff: 2 * time.Second,
		TurnDuration: DefaultTurnTime,
		BaseMoveTime: DefaultBaseMove,
	}
}

// LoadConfig - environment variables (after godotenv) with defaults
func LoadConfig() Config {
	timing := DefaultLoopTiming()
	cfg := Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8000"),
		AllowOrigins:   getEnv("CORS_ORIGINS", "http://localhost:5173"),
		RobotMode:      strings.ToLower(getEnv("ROBOT_MODE", RobotModeESP32)),
		ESP32BaseURL:   strings.TrimRight(getEnv("ESP32_BASE_URL", "http://192.168.107.231"), "/"),
		DetectorURL:    getEnv("DETECTOR_URL", "http://localhost:8500/detect"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		CommandTimeout: getDuration("COMMAND_TIMEOUT", 5*time.Second),

		GridRows:      getInt("GRID_ROWS", algorithms.DefaultRows),
		GridCols:      getInt("GRID_COLS", algorithms.DefaultCols),
		GridObstacles: os.Getenv("GRID_OBSTACLES"),

		Loop: LoopTiming{
			TickInterval: getDuration("TICK_INTERVAL", timing.TickInterval),
			FrameBackoff: getDuration("FRAME_BACKOFF", timing.FrameBackoff),
			ErrorBackoff: getDuration("ERROR_BACKOFF", timing.ErrorBackoff),
			TurnDuration: getDuration("TURN_DURATION", timing.TurnDuration),
			BaseMoveTime: getDuration("BASE_MOVE_TIME", timing.BaseMoveTime),
		},

		JoinTimeout:       getDuration("JOIN_TIMEOUT", 2*time.Second),
		TelemetryInterval: getDuration("TELEMETRY_INTERVAL", time.Second/DefaultTelemetryHz),

		LogFlushSize:     getInt("LOG_FLUSH_SIZE", 50),
		LogFlushInterval: getDuration("LOG_FLUSH_INTERVAL", 10*time.Second),
	}
	return cfg
}

// BuildGrid - GridMap from the configured layout. Without GRID_OBSTACLES
// the test track obstacles are used.
func (c Config) BuildGrid() (*algorithms.GridMap, error) {
	obstacles := algorithms.DefaultObstacles
	if strings.TrimSpace(c.GridObstacles) != "" {
		parsed, err := algorithms.ParseObstacles(c.GridObstacles)
		if err != nil {
			return nil, err
		}
		obstacles = parsed
	}
	return algorithms.NewGridMap(c.GridRows, c.GridCols, obstacles)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("⚠️  %s=%q ignored, using default %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("⚠️  %s=%q ignored, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}
